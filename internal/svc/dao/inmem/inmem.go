// Package inmem provides a process-memory-only dao.Store, adapted from
// github.com/dekarrin/tunaq's server/dao/inmem package. It is the default
// backend for `narratr serve` (SPEC_FULL.md's DOMAIN STACK section) and is
// suitable for local development and tests; nothing here survives a
// restart.
package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dekarrin/narratr/internal/svc/dao"
)

type datastore struct {
	jobs *jobRepo
	keys *apiKeyRepo
}

// NewDatastore returns a dao.Store backed entirely by in-memory maps.
func NewDatastore() dao.Store {
	return &datastore{
		jobs: &jobRepo{jobs: make(map[uuid.UUID]dao.Job)},
		keys: &apiKeyRepo{keys: make(map[uuid.UUID]dao.APIKey)},
	}
}

func (d *datastore) Jobs() dao.JobRepository       { return d.jobs }
func (d *datastore) APIKeys() dao.APIKeyRepository { return d.keys }
func (d *datastore) Close() error                  { return nil }

type jobRepo struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]dao.Job
}

func (r *jobRepo) Create(ctx context.Context, j dao.Job) (dao.Job, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.Job{}, err
	}
	j.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = j
	return j, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return dao.Job{}, dao.ErrNotFound
	}
	return j, nil
}

func (r *jobRepo) Update(ctx context.Context, id uuid.UUID, j dao.Job) (dao.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return dao.Job{}, dao.ErrNotFound
	}
	j.ID = id
	r.jobs[id] = j
	return j, nil
}

func (r *jobRepo) Close() error { return nil }

type apiKeyRepo struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]dao.APIKey
}

func (r *apiKeyRepo) Create(ctx context.Context, k dao.APIKey) (dao.APIKey, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.APIKey{}, err
	}
	k.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[id] = k
	return k, nil
}

func (r *apiKeyRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[id]
	if !ok {
		return dao.APIKey{}, dao.ErrNotFound
	}
	return k, nil
}

func (r *apiKeyRepo) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []dao.APIKey
	for _, k := range r.keys {
		if k.OwnerID == ownerID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *apiKeyRepo) Close() error { return nil }
