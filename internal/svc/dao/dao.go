// Package dao provides data access objects for the narratr compile-as-a-
// service HTTP API (SPEC_FULL.md's DOMAIN STACK section), adapted from
// github.com/dekarrin/tunaq's server/dao package: the same
// Store-of-repositories shape, narrowed from a whole game server down to
// the two entities this service actually needs, a job queue and the API
// keys that authenticate against it.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
)

// Store holds all the repositories backing the service.
type Store interface {
	Jobs() JobRepository
	APIKeys() APIKeyRepository
	Close() error
}

// JobStatus is the lifecycle state of a compile Job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one submitted compile request and, once finished, its result.
type Job struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Status   JobStatus
	Source   string // the submitted Narratr source
	Output   string // the generated target-host script, once succeeded
	Error    string // the first diagnostic's message, once failed
	Created  time.Time
	Finished time.Time
}

// JobRepository persists compile Jobs.
type JobRepository interface {
	Create(ctx context.Context, j Job) (Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (Job, error)
	Update(ctx context.Context, id uuid.UUID, j Job) (Job, error)
	Close() error
}

// APIKey is a bearer credential that authenticates requests to the service.
type APIKey struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Label   string
	// Hash is the bcrypt hash of the raw key the caller presents; the raw
	// key itself is never persisted (see internal/svc/auth).
	Hash    []byte
	Created time.Time
}

// APIKeyRepository persists and looks up API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, k APIKey) (APIKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (APIKey, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]APIKey, error)
	Close() error
}
