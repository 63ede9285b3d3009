// Package importfilter maintains the denylist of property ids excluded
// from page-to-template import, and classifies raw page scrapes into
// importable properties.
package importfilter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/starford/tessera/internal/kvstore"
)

const denylistKey = "ignored-import-ids"

// Filter is the committed denylist, persisted independently of any
// template. Ids are kept in string form, as the host form encodes them.
type Filter struct {
	mu  sync.Mutex
	kv  kvstore.Store
	log *slog.Logger
	ids map[string]struct{}
}

// New loads the committed denylist from the store. A corrupt document is
// logged and replaced with an empty list.
func New(kv kvstore.Store, log *slog.Logger) (*Filter, error) {
	f := &Filter{kv: kv, log: log, ids: make(map[string]struct{})}

	raw, ok, err := kv.Get(denylistKey)
	if err != nil {
		return nil, fmt.Errorf("importfilter: load: %w", err)
	}
	if ok {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			log.Warn("ignored-ids document corrupt, starting empty", "error", err)
		} else {
			for _, id := range list {
				f.ids[id] = struct{}{}
			}
		}
	}
	return f, nil
}

// List returns the committed ids in ascending string order.
func (f *Filter) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedIDs(f.ids)
}

// Contains reports whether id is denylisted.
func (f *Filter) Contains(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

// Replace overwrites the committed list and persists it. This is the
// commit path of a staging session.
func (f *Filter) Replace(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	raw, err := json.Marshal(sortedIDs(next))
	if err != nil {
		return fmt.Errorf("importfilter: encode: %w", err)
	}
	if err := f.kv.Set(denylistKey, raw); err != nil {
		return fmt.Errorf("importfilter: persist: %w", err)
	}
	f.ids = next
	return nil
}

// Open starts a staging session mirroring the committed list. Session
// edits touch only the staged copy until Commit.
func (f *Filter) Open() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		staged[id] = struct{}{}
	}
	return &Session{filter: f, staged: staged}
}

// Session is a staged editing copy of the denylist. It is not safe for
// concurrent use; each editing surface holds its own session.
type Session struct {
	filter *Filter
	staged map[string]struct{}
}

// Add stages one id. Adding a present id is a no-op.
func (s *Session) Add(id string) {
	if id == "" {
		return
	}
	s.staged[id] = struct{}{}
}

// Remove unstages one id.
func (s *Session) Remove(id string) {
	delete(s.staged, id)
}

// Clear empties the staged copy.
func (s *Session) Clear() {
	s.staged = make(map[string]struct{})
}

// List returns the staged ids in ascending string order.
func (s *Session) List() []string {
	return sortedIDs(s.staged)
}

// Commit replaces the committed list with the staged copy and persists.
func (s *Session) Commit() error {
	return s.filter.Replace(sortedIDs(s.staged))
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
