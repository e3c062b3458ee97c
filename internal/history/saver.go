package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qadash/whiteboard/internal/document"
)

// saver writes snapshots in the background. Only the newest pending
// snapshot is kept: a save that is superseded before it starts is skipped.
type saver struct {
	persister Persister
	timeout   time.Duration
	log       *slog.Logger
	onError   func(error)

	mu      sync.Mutex
	pending *document.Snapshot
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newSaver(p Persister, timeout time.Duration, log *slog.Logger, onError func(error)) *saver {
	return &saver{
		persister: p,
		timeout:   timeout,
		log:       log,
		onError:   onError,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// enqueue replaces the pending snapshot. It fails once close has begun.
func (s *saver) enqueue(snap document.Snapshot) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending = &snap
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *saver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *saver) drain() {
	for {
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		s.mu.Unlock()

		if snap == nil {
			return
		}
		s.save(*snap)
	}
}

func (s *saver) save(snap document.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.persister.Save(ctx, snap); err != nil {
		err = fmt.Errorf("save snapshot v%d: %w", snap.Version, err)
		s.log.Warn("snapshot save failed", "error", err, "version", snap.Version)
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	s.log.Debug("snapshot saved", "version", snap.Version, "elements", len(snap.Elements))
}

func (s *saver) close(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
