// Package store keeps named snapshots of encoded values in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/borges/vm"
	"github.com/chazu/borges/vm/dist"
)

// ErrNotFound indicates the requested snapshot doesn't exist
var ErrNotFound = errors.New("snapshot not found")

var log = commonlog.GetLogger("borges.store")

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	count INTEGER NOT NULL,
	shared INTEGER NOT NULL,
	hash BLOB NOT NULL,
	chunk BLOB NOT NULL,
	created_at TEXT NOT NULL
)`

// Info describes a stored snapshot without decoding it.
type Info struct {
	ID        string
	Name      string
	Count     int
	Shared    bool
	Hash      [32]byte
	CreatedAt time.Time
}

// Store is a snapshot database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the snapshot database at path. Parent directories
// are created as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debug("opened snapshot store", "path", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes values into a chunk and stores it under name, replacing any
// snapshot already stored under that name.
func (s *Store) Put(ctx context.Context, name string, values []vm.Value, shared bool) (Info, error) {
	if name == "" {
		return Info{}, errors.New("snapshot name is required")
	}

	chunk := dist.NewChunk(values, shared)
	data, err := dist.MarshalChunk(chunk)
	if err != nil {
		return Info{}, fmt.Errorf("encoding chunk: %w", err)
	}

	info := Info{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Count:     len(values),
		Shared:    shared,
		Hash:      chunk.Hash,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (id, name, count, shared, hash, chunk, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, info.Count, info.Shared, info.Hash[:], data,
		info.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Info{}, fmt.Errorf("saving snapshot %q: %w", name, err)
	}

	log.Info("stored snapshot", "name", name, "values", info.Count, "slots", chunk.SlotCount())
	return info, nil
}

// Get loads and decodes the snapshot stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]vm.Value, error) {
	chunk, err := s.Chunk(ctx, name)
	if err != nil {
		return nil, err
	}
	values, err := chunk.Values()
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return values, nil
}

// Chunk loads the stored chunk for name without decoding its values.
func (s *Store) Chunk(ctx context.Context, name string) (*dist.Chunk, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT chunk FROM snapshots WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	chunk, err := dist.UnmarshalChunk(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return chunk, nil
}

// Info returns the metadata of the snapshot stored under name.
func (s *Store) Info(ctx context.Context, name string) (Info, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, count, shared, hash, created_at FROM snapshots WHERE name = ?", name)
	info, err := scanInfo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Info{}, fmt.Errorf("querying snapshot: %w", err)
	}
	return info, nil
}

// List returns the metadata of every snapshot, ordered by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, count, shared, hash, created_at FROM snapshots ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	log.Info("deleted snapshot", "name", name)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (Info, error) {
	var (
		info    Info
		hash    []byte
		created string
	)
	if err := row.Scan(&info.ID, &info.Name, &info.Count, &info.Shared, &hash, &created); err != nil {
		return Info{}, err
	}
	copy(info.Hash[:], hash)
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Info{}, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	info.CreatedAt = t
	return info, nil
}
