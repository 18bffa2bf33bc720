// Package sqlite provides a dao.Store backed by modernc.org/sqlite,
// adapted from github.com/dekarrin/tunaq's server/dao/sqlite package: the
// same sql.Open("sqlite", path)-and-hand-written-DDL approach, with
// github.com/dekarrin/rezi doing the binary encoding of the one value not
// stored as plain text or integers (here, an API key's bcrypt hash).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dekarrin/narratr/internal/svc/dao"
)

type store struct {
	db   *sql.DB
	jobs *jobsDB
	keys *apiKeysDB
}

// NewDatastore opens (and if needed creates) the sqlite database file
// "narratr.db" inside storageDir and returns a dao.Store backed by it.
func NewDatastore(storageDir string) (dao.Store, error) {
	path := filepath.Join(storageDir, "narratr.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	st := &store{db: db}
	st.jobs = &jobsDB{db: db}
	if err := st.jobs.init(); err != nil {
		return nil, err
	}
	st.keys = &apiKeysDB{db: db}
	if err := st.keys.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Jobs() dao.JobRepository       { return s.jobs }
func (s *store) APIKeys() dao.APIKeyRepository { return s.keys }
func (s *store) Close() error                  { return s.db.Close() }

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("sqlite: %w", err)
}

type jobsDB struct {
	db *sql.DB
}

func (r *jobsDB) init() error {
	const stmt = `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY NOT NULL,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		output TEXT NOT NULL,
		error TEXT NOT NULL,
		created INTEGER NOT NULL,
		finished INTEGER NOT NULL
	);`
	if _, err := r.db.Exec(stmt); err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *jobsDB) Create(ctx context.Context, j dao.Job) (dao.Job, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.Job{}, fmt.Errorf("could not generate ID: %w", err)
	}
	j.ID = id
	j.Created = time.Now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, owner_id, status, source, output, error, created, finished) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.OwnerID.String(), string(j.Status), j.Source, j.Output, j.Error, j.Created.Unix(), j.Finished.Unix(),
	)
	if err != nil {
		return dao.Job{}, wrapDBError(err)
	}
	return j, nil
}

func (r *jobsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, status, source, output, error, created, finished FROM jobs WHERE id = ?`, id.String())
	return scanJob(row)
}

func (r *jobsDB) Update(ctx context.Context, id uuid.UUID, j dao.Job) (dao.Job, error) {
	j.ID = id
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET owner_id = ?, status = ?, source = ?, output = ?, error = ?, finished = ? WHERE id = ?`,
		j.OwnerID.String(), string(j.Status), j.Source, j.Output, j.Error, time.Now().Unix(), id.String(),
	)
	if err != nil {
		return dao.Job{}, wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dao.Job{}, wrapDBError(err)
	}
	if n == 0 {
		return dao.Job{}, dao.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *jobsDB) Close() error { return nil }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (dao.Job, error) {
	var j dao.Job
	var idStr, ownerStr, status string
	var created, finished int64

	err := row.Scan(&idStr, &ownerStr, &status, &j.Source, &j.Output, &j.Error, &created, &finished)
	if err == sql.ErrNoRows {
		return dao.Job{}, dao.ErrNotFound
	}
	if err != nil {
		return dao.Job{}, wrapDBError(err)
	}

	if j.ID, err = uuid.Parse(idStr); err != nil {
		return dao.Job{}, fmt.Errorf("decode job id: %w", err)
	}
	if j.OwnerID, err = uuid.Parse(ownerStr); err != nil {
		return dao.Job{}, fmt.Errorf("decode owner id: %w", err)
	}
	j.Status = dao.JobStatus(status)
	j.Created = time.Unix(created, 0)
	j.Finished = time.Unix(finished, 0)
	return j, nil
}

type apiKeysDB struct {
	db *sql.DB
}

func (r *apiKeysDB) init() error {
	const stmt = `
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY NOT NULL,
		owner_id TEXT NOT NULL,
		label TEXT NOT NULL,
		hash BLOB NOT NULL,
		created INTEGER NOT NULL
	);`
	if _, err := r.db.Exec(stmt); err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *apiKeysDB) Create(ctx context.Context, k dao.APIKey) (dao.APIKey, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.APIKey{}, fmt.Errorf("could not generate ID: %w", err)
	}
	k.ID = id
	k.Created = time.Now()

	// rezi encodes the hash bytes for storage the same way tunaq's sqlite
	// layer uses it to encode structured game state (server/dao/sqlite):
	// a length-prefixed binary form safe to round-trip through a BLOB column.
	encHash := rezi.EncBinary(hashBlob(k.Hash))

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, owner_id, label, hash, created) VALUES (?, ?, ?, ?, ?)`,
		k.ID.String(), k.OwnerID.String(), k.Label, encHash, k.Created.Unix(),
	)
	if err != nil {
		return dao.APIKey{}, wrapDBError(err)
	}
	return k, nil
}

func (r *apiKeysDB) GetByID(ctx context.Context, id uuid.UUID) (dao.APIKey, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, label, hash, created FROM api_keys WHERE id = ?`, id.String())
	return scanAPIKey(row)
}

func (r *apiKeysDB) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, label, hash, created FROM api_keys WHERE owner_id = ?`, ownerID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, k)
	}
	return all, nil
}

func (r *apiKeysDB) Close() error { return nil }

// hashBlob wraps a bcrypt hash so it has the BinaryMarshaler/BinaryUnmarshaler
// pair rezi.EncBinary/DecBinary require.
type hashBlob []byte

func (h hashBlob) MarshalBinary() ([]byte, error) {
	return []byte(h), nil
}

func (h *hashBlob) UnmarshalBinary(data []byte) error {
	*h = data
	return nil
}

func scanAPIKey(row rowScanner) (dao.APIKey, error) {
	var k dao.APIKey
	var idStr, ownerStr string
	var encHash []byte
	var created int64

	err := row.Scan(&idStr, &ownerStr, &k.Label, &encHash, &created)
	if err == sql.ErrNoRows {
		return dao.APIKey{}, dao.ErrNotFound
	}
	if err != nil {
		return dao.APIKey{}, wrapDBError(err)
	}

	if k.ID, err = uuid.Parse(idStr); err != nil {
		return dao.APIKey{}, fmt.Errorf("decode key id: %w", err)
	}
	if k.OwnerID, err = uuid.Parse(ownerStr); err != nil {
		return dao.APIKey{}, fmt.Errorf("decode owner id: %w", err)
	}

	var hb hashBlob
	if _, err := rezi.DecBinary(encHash, &hb); err != nil {
		return dao.APIKey{}, fmt.Errorf("decode key hash: %w", err)
	}
	k.Hash = []byte(hb)
	k.Created = time.Unix(created, 0)
	return k, nil
}
