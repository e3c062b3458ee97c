// Package pgstore keeps board snapshots in Postgres, one row per board.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id         TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	elements   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// The WHERE clause turns an older write into a no-op so concurrent savers
// stay last-write-wins.
const upsertSnapshot = `
INSERT INTO boards (id, version, elements, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET version = EXCLUDED.version, elements = EXCLUDED.elements, updated_at = EXCLUDED.updated_at
WHERE boards.version <= EXCLUDED.version`

const selectSnapshot = `SELECT version, elements, updated_at FROM boards WHERE id = $1`

type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func New(pool *pgxpool.Pool, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, log: log}
}

// Migrate creates the boards table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate boards: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, boardID string) (*document.Snapshot, error) {
	var (
		snap     document.Snapshot
		elements []byte
	)
	err := s.pool.QueryRow(ctx, selectSnapshot, boardID).Scan(&snap.Version, &elements, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if err := json.Unmarshal(elements, &snap.Elements); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", boardID, err)
	}
	return &snap, nil
}

// Save upserts the snapshot. A write older than the stored version changes
// nothing and returns store.ErrStale.
func (s *Store) Save(ctx context.Context, boardID string, snap document.Snapshot) error {
	elements := snap.Elements
	if elements == nil {
		elements = []*document.Element{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", boardID, err)
	}

	tag, err := s.pool.Exec(ctx, upsertSnapshot, boardID, snap.Version, data, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.log.Debug("stale snapshot ignored", "board", boardID, "version", snap.Version)
		return store.ErrStale
	}
	return nil
}
