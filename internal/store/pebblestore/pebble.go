// Package pebblestore keeps board snapshots in an embedded pebble database.
package pebblestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/store"
)

const keyPrefix = "board:"

func snapshotKey(boardID string) []byte {
	return []byte(keyPrefix + boardID + ":snapshot")
}

type Store struct {
	db  *pebble.DB
	log *slog.Logger

	// serializes the version check with the write
	mu sync.Mutex
}

func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create pebble dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	log.Info("pebble store opened", "path", path)
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(_ context.Context, boardID string) (*document.Snapshot, error) {
	raw, err := s.get(boardID)
	if err != nil {
		return nil, err
	}
	var snap document.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", boardID, err)
	}
	return &snap, nil
}

// Save stores snap unless a newer version is already present, in which
// case it returns store.ErrStale.
func (s *Store) Save(_ context.Context, boardID string, snap document.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", boardID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.get(boardID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		var head struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(cur, &head); err == nil && snap.Version < head.Version {
			s.log.Debug("stale snapshot ignored", "board", boardID, "version", snap.Version, "stored", head.Version)
			return store.ErrStale
		}
	}

	if err := s.db.Set(snapshotKey(boardID), data, pebble.Sync); err != nil {
		return fmt.Errorf("write snapshot %s: %w", boardID, err)
	}
	return nil
}

// Boards lists the IDs of all stored boards.
func (s *Store) Boards(_ context.Context) ([]string, error) {
	prefix := []byte(keyPrefix)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte(keyPrefix[:len(keyPrefix)-1] + ";"),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	defer it.Close()

	suffix := []byte(":snapshot")
	var ids []string
	for ok := it.First(); ok; ok = it.Next() {
		k := it.Key()
		if !bytes.HasSuffix(k, suffix) {
			continue
		}
		ids = append(ids, string(k[len(prefix):len(k)-len(suffix)]))
	}
	return ids, nil
}

func (s *Store) get(boardID string) ([]byte, error) {
	v, closer, err := s.db.Get(snapshotKey(boardID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", boardID, err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}
