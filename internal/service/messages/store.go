package messages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/metrics"
	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
	"github.com/zhouzirui/sphere-relay/backend/internal/storage/snapshot"
)

// Store holds the ordered list of tracked messages, oldest first, and mirrors
// it to a snapshot backend. Expiry is evaluated lazily: on load, on append and
// whenever a snapshot is taken.
type Store struct {
	mu        sync.RWMutex
	items     []message.Message
	persister snapshot.Persister
	capacity  int
	now       func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCapacity overrides the message cap.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewStore creates an empty store. A nil persister keeps the store memory-only.
func NewStore(persister snapshot.Persister, opts ...Option) *Store {
	s := &Store{
		items:     make([]message.Message, 0, message.MaxActive),
		persister: persister,
		capacity:  message.MaxActive,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time { return s.now() }

// Load adopts the persisted snapshot as the initial state, keeping only live
// entries. A missing or unreadable snapshot yields an empty store; the error
// is logged, never returned.
func (s *Store) Load(ctx context.Context) (loaded, active int) {
	if s.persister == nil {
		return 0, 0
	}

	msgs, err := s.persister.Load(ctx)
	if err != nil {
		logrus.WithError(err).WithField("backend", s.persister.Name()).Warn("could not load message snapshot, starting empty")
		msgs = nil
	}

	live := message.FilterLive(msgs, s.now())
	if len(live) > s.capacity {
		live = live[len(live)-s.capacity:]
	}

	s.mu.Lock()
	s.items = append(make([]message.Message, 0, s.capacity), live...)
	metrics.ActiveMessages.Set(float64(len(s.items)))
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"loaded": len(msgs),
		"active": len(live),
	}).Info("message snapshot loaded")

	return len(msgs), len(live)
}

// Append inserts m as the most recent message, sweeps expired entries, trims
// the oldest beyond the cap and rewrites the snapshot. A persistence failure
// is returned but the in-memory append stands.
func (s *Store) Append(ctx context.Context, m message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, m)
	s.items = message.FilterLive(s.items, s.now())
	if over := len(s.items) - s.capacity; over > 0 {
		s.items = append(s.items[:0], s.items[over:]...)
	}
	metrics.ActiveMessages.Set(float64(len(s.items)))

	if s.persister == nil {
		return nil
	}

	// Saving under the lock keeps writes in acceptance order.
	if err := s.persister.Save(ctx, s.items); err != nil {
		metrics.SnapshotWriteFailures.Inc()
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the live messages without mutating the store.
func (s *Store) Snapshot() []message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return message.FilterLive(s.items, s.now())
}

// Clear empties the in-memory list. The persisted snapshot is left as is and
// gets overwritten by the next append; anything it still holds is filtered by
// expiry on the next load.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = s.items[:0]
	metrics.ActiveMessages.Set(0)
	s.mu.Unlock()
}

// Prune drops expired messages from memory only and reports how many went.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	s.items = message.FilterLive(s.items, s.now())
	metrics.ActiveMessages.Set(float64(len(s.items)))
	return before - len(s.items)
}

// Len reports the raw in-memory length, stale entries included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Backend names the snapshot backend, or "memory".
func (s *Store) Backend() string {
	if s.persister == nil {
		return "memory"
	}
	return s.persister.Name()
}

// Ping checks the snapshot backend.
func (s *Store) Ping(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Ping(ctx)
}
