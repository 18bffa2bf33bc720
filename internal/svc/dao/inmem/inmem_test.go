package inmem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/narratr/internal/svc/dao"
)

func TestJobs_createGetUpdate(t *testing.T) {
	store := NewDatastore()
	ctx := context.Background()

	created, err := store.Jobs().Create(ctx, dao.Job{Status: dao.JobQueued, Source: "scene $1 {}"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := store.Jobs().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, dao.JobQueued, got.Status)

	updated := got
	updated.Status = dao.JobSucceeded
	updated.Output = "pocket = {}"
	saved, err := store.Jobs().Update(ctx, created.ID, updated)
	require.NoError(t, err)
	assert.Equal(t, dao.JobSucceeded, saved.Status)

	reGot, err := store.Jobs().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pocket = {}", reGot.Output)
}

func TestJobs_getByIDMissingIsNotFound(t *testing.T) {
	store := NewDatastore()
	_, err := store.Jobs().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestJobs_updateMissingIsNotFound(t *testing.T) {
	store := NewDatastore()
	_, err := store.Jobs().Update(context.Background(), uuid.New(), dao.Job{})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestAPIKeys_createAndGetAllByOwner(t *testing.T) {
	store := NewDatastore()
	ctx := context.Background()
	owner := uuid.New()

	k1, err := store.APIKeys().Create(ctx, dao.APIKey{OwnerID: owner, Label: "laptop"})
	require.NoError(t, err)
	_, err = store.APIKeys().Create(ctx, dao.APIKey{OwnerID: uuid.New(), Label: "someone else"})
	require.NoError(t, err)

	mine, err := store.APIKeys().GetAllByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, k1.ID, mine[0].ID)
}

func TestAPIKeys_getByIDMissingIsNotFound(t *testing.T) {
	store := NewDatastore()
	_, err := store.APIKeys().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
