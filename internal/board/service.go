// Package board serves board snapshots over HTTP. It is the server half of
// the editor's Persistence Bridge.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/store"
	"github.com/qadash/whiteboard/internal/typeid"
)

var (
	ErrNotFound        = errors.New("board not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrStale           = errors.New("a newer snapshot is stored")
)

type Service struct {
	store store.SnapshotStore
	log   *slog.Logger
	now   func() time.Time
}

func NewService(s store.SnapshotStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, log: log, now: time.Now}
}

// Board is the summary returned when a board is created.
type Board struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Version   int64     `json:"version"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Create stores a new board, optionally seeded with the sample scene.
func (s *Service) Create(ctx context.Context, ownerID string, sample bool) (*Board, error) {
	boardID := typeid.NewBoardID()

	scene := document.NewScene()
	if sample {
		scene = document.NewSampleScene(ownerID)
	}
	snap := scene.Snapshot(1, s.now().UTC())
	if err := s.store.Save(ctx, boardID, snap); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	s.log.Info("board created", "board", boardID, "owner", ownerID, "sample", sample)
	return &Board{
		ID:        boardID,
		OwnerID:   ownerID,
		Version:   snap.Version,
		Elements:  len(snap.Elements),
		UpdatedAt: snap.UpdatedAt,
	}, nil
}

// EnsureSample seeds boardID with the sample scene unless it already exists.
func (s *Service) EnsureSample(ctx context.Context, boardID string) error {
	_, err := s.store.Load(ctx, boardID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load board: %w", err)
	}
	snap := document.NewSampleScene("").Snapshot(1, s.now().UTC())
	if err := s.store.Save(ctx, boardID, snap); err != nil && !errors.Is(err, store.ErrStale) {
		return fmt.Errorf("seed board: %w", err)
	}
	return nil
}

func (s *Service) GetSnapshot(ctx context.Context, boardID string) (*document.Snapshot, error) {
	snap, err := s.store.Load(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// PutSnapshot validates and stores snap. The stored UpdatedAt is the
// server's clock.
func (s *Service) PutSnapshot(ctx context.Context, boardID, actorID string, snap document.Snapshot) error {
	if snap.Version <= 0 {
		return fmt.Errorf("%w: version must be positive", ErrInvalidSnapshot)
	}
	if err := snap.Scene().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	snap.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, boardID, snap); err != nil {
		if errors.Is(err, store.ErrStale) {
			return ErrStale
		}
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.log.Debug("snapshot saved", "board", boardID, "version", snap.Version, "actor", actorID, "elements", len(snap.Elements))
	return nil
}
