package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"takforge/domain/core"
	"takforge/ports"
)

// PostgresStore implements the registry on PostgreSQL for deployments where
// several operators share one generation campaign.
type PostgresStore struct {
	db *sqlx.DB
}

// registryRow is the database shape of one registry entry.
type registryRow struct {
	TakID      string    `db:"tak_id"`
	Filename   string    `db:"filename"`
	Status     string    `db:"status"`
	RunID      string    `db:"run_id"`
	RecordedAt time.Time `db:"recorded_at"`
}

// NewPostgresStore creates a PostgreSQL registry over an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a PostgreSQL registry from a DSN and ensures its table exists.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to registry database: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tak_registry (
			tak_id      TEXT PRIMARY KEY,
			filename    TEXT NOT NULL,
			status      TEXT NOT NULL,
			run_id      TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

// Contains reports whether the row already has a recorded outcome.
func (s *PostgresStore) Contains(ctx context.Context, id core.TakID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM tak_registry WHERE tak_id = $1)`, id.String())
	if err != nil {
		return false, fmt.Errorf("query registry: %w", err)
	}
	return exists, nil
}

// Record appends one outcome. ON CONFLICT DO NOTHING keeps the registry
// append-only under re-runs.
func (s *PostgresStore) Record(ctx context.Context, entry ports.RegistryEntry) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO tak_registry (tak_id, filename, status, run_id, recorded_at)
		VALUES (:tak_id, :filename, :status, :run_id, :recorded_at)
		ON CONFLICT (tak_id) DO NOTHING
	`, registryRow{
		TakID:      entry.TakID.String(),
		Filename:   entry.Filename,
		Status:     string(entry.Status),
		RunID:      entry.RunID.String(),
		RecordedAt: entry.RecordedAt.Time(),
	})
	if err != nil {
		return fmt.Errorf("record registry entry: %w", err)
	}
	return nil
}

// Get returns the recorded outcome, core.ErrNotFound when absent.
func (s *PostgresStore) Get(ctx context.Context, id core.TakID) (*ports.RegistryEntry, error) {
	var row registryRow
	err := s.db.GetContext(ctx, &row, `
		SELECT tak_id, filename, status, run_id, recorded_at
		FROM tak_registry WHERE tak_id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: registry entry '%s'", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	entry := row.toEntry()
	return &entry, nil
}

// All returns every recorded outcome in recording order.
func (s *PostgresStore) All(ctx context.Context) ([]ports.RegistryEntry, error) {
	var rows []registryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tak_id, filename, status, run_id, recorded_at
		FROM tak_registry ORDER BY recorded_at, tak_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	out := make([]ports.RegistryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntry())
	}
	return out, nil
}

func (r registryRow) toEntry() ports.RegistryEntry {
	return ports.RegistryEntry{
		TakID:      core.TakID(r.TakID),
		Filename:   r.Filename,
		Status:     core.ArtifactStatus(r.Status),
		RunID:      core.RunID(r.RunID),
		RecordedAt: core.Timestamp(r.RecordedAt),
	}
}
