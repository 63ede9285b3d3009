// Package undoable wraps a persisted value with one level of grace-period
// undo. Every change, tracked or not, is written synchronously to the
// durable store; the undo snapshot itself lives only in memory and does
// not survive a process restart.
package undoable

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/tessera/internal/kvstore"
)

// Store holds one persisted value of type T under a fixed key.
//
// Set replaces the value without recording anything. SetUndoable records
// the pre-mutation value and starts the grace timer; a newer SetUndoable
// discards the older snapshot (one level, not a stack). Undo restores the
// snapshot while the timer is still pending and is a silent no-op after.
type Store[T any] struct {
	kv    kvstore.Store
	key   string
	grace time.Duration

	mu       sync.Mutex
	value    T
	snapshot *T
	timer    *time.Timer
	gen      uint64 // invalidates stale timer callbacks
}

// New loads the current value for key from the store, falling back to
// initial when the key is absent or its payload does not parse.
func New[T any](kv kvstore.Store, key string, grace time.Duration, initial T) (*Store[T], error) {
	s := &Store[T]{kv: kv, key: key, grace: grace, value: initial}
	raw, ok, err := kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("undoable: load %s: %w", key, err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			slog.Warn("undoable: stored value is corrupt, using initial",
				slog.String("key", key), slog.String("error", err.Error()))
		} else {
			s.value = v
		}
	}
	return s, nil
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value. No undo is recorded.
func (s *Store[T]) Set(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(v)
}

// SetUndoable replaces the value, keeping the previous one restorable
// until the grace period elapses.
func (s *Store[T]) SetUndoable(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.value
	if err := s.apply(v); err != nil {
		return err
	}

	s.snapshot = &prev
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			s.snapshot = nil
			s.timer = nil
		}
	})
	return nil
}

// Undo restores the pending snapshot. Returns false when the grace period
// has elapsed or nothing was recorded; that case is a no-op, not an error.
func (s *Store[T]) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return false
	}
	restored := *s.snapshot
	s.snapshot = nil
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if err := s.apply(restored); err != nil {
		slog.Error("undoable: persist restored value failed",
			slog.String("key", s.key), slog.String("error", err.Error()))
	}
	return true
}

// apply sets the in-memory value and persists it. Callers hold mu.
func (s *Store[T]) apply(v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("undoable: marshal %s: %w", s.key, err)
	}
	if err := s.kv.Set(s.key, raw); err != nil {
		return err
	}
	s.value = v
	return nil
}
