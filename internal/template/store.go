package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/kvstore"
	"github.com/starford/tessera/internal/status"
	"github.com/starford/tessera/internal/undoable"
)

// Persistence keys. Editor drafts are namespaced by template id.
const (
	keyTemplates   = "prop-templates"
	keyActive      = "prop-active-template-id"
	keyDraftPrefix = "editor-props-"
)

// Grace periods for undoable mutations: quick list actions get a short
// window, destructive editor actions a long one.
const (
	ListGrace   = 3 * time.Second
	EditorGrace = 15 * time.Second
)

// copySuffix marks duplicated templates, matching the operator's locale.
const copySuffix = " (копия)"

// Store owns the template collection, the active selection, and the
// per-template editor drafts. All persistence goes through the injected
// key-value store; list deletion is undoable within ListGrace.
type Store struct {
	cat    *catalog.Catalog
	kv     kvstore.Store
	notify status.Notifier

	templates *undoable.Store[[]Template]

	mu     sync.Mutex
	lastID int64
	drafts map[int64]*undoable.Store[[]Property]
}

// NewStore loads the persisted template collection.
func NewStore(kv kvstore.Store, cat *catalog.Catalog, notify status.Notifier) (*Store, error) {
	ts, err := undoable.New(kv, keyTemplates, ListGrace, []Template{})
	if err != nil {
		return nil, err
	}
	return &Store{
		cat:       cat,
		kv:        kv,
		notify:    notify,
		templates: ts,
		drafts:    make(map[int64]*undoable.Store[[]Property]),
	}, nil
}

// List returns all templates in display order.
func (s *Store) List() []Template {
	src := s.templates.Get()
	out := make([]Template, len(src))
	for i, t := range src {
		out[i] = t.Clone()
	}
	return out
}

// Get returns the template with the given id.
func (s *Store) Get(id int64) (*Template, error) {
	for _, t := range s.templates.Get() {
		if t.ID == id {
			cp := t.Clone()
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("template %d: %w", id, apperr.ErrNotFound)
}

// Add appends a new empty template. The name must not trim to empty.
func (s *Store) Add(name string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: template name is required", apperr.ErrValidation)
	}
	t := Template{ID: s.newID(), Name: name, Properties: []Property{}}
	list := append(s.templates.Get(), t)
	if err := s.templates.Set(list); err != nil {
		return nil, err
	}
	s.notify.Progress(fmt.Sprintf("Template %q created", name), time.Second)
	return &t, nil
}

// Update replaces one template by id, sanitizing decimal separators.
func (s *Store) Update(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", apperr.ErrValidation)
	}
	t.Sanitize(s.cat)
	if err := validateProperties(t.Properties); err != nil {
		return err
	}

	list := append([]Template(nil), s.templates.Get()...)
	for i := range list {
		if list[i].ID == t.ID {
			list[i] = t.Clone()
			if err := s.templates.Set(list); err != nil {
				return err
			}
			s.notify.Progress(fmt.Sprintf("Template %q saved", t.Name), 2*time.Second)
			return nil
		}
	}
	return fmt.Errorf("template %d: %w", t.ID, apperr.ErrNotFound)
}

// Delete removes a template with a grace-period undo. When the deleted
// template is the active selection, the selection is cleared first.
func (s *Store) Delete(id int64) error {
	list := s.templates.Get()
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("template %d: %w", id, apperr.ErrNotFound)
	}

	if active, ok := s.Active(); ok && active == id {
		if err := s.ClearActive(); err != nil {
			return err
		}
	}

	next := make([]Template, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	if err := s.templates.SetUndoable(next); err != nil {
		return err
	}
	s.notify.Progress("Template deleted (undo available)", ListGrace)
	return nil
}

// Undo reverts the most recent undoable list mutation if its grace period
// has not elapsed. Expired undo is a silent no-op.
func (s *Store) Undo() bool {
	if !s.templates.Undo() {
		return false
	}
	s.notify.Progress("Template deletion undone", 1500*time.Millisecond)
	return true
}

// Duplicate deep-copies a template, giving it a fresh id and a copy
// suffix, and inserts it immediately after the source.
func (s *Store) Duplicate(id int64) (*Template, error) {
	list := s.templates.Get()
	for i := range list {
		if list[i].ID != id {
			continue
		}
		cp := list[i].Clone()
		cp.ID = s.newID()
		cp.Name = list[i].Name + copySuffix

		next := make([]Template, 0, len(list)+1)
		next = append(next, list[:i+1]...)
		next = append(next, cp)
		next = append(next, list[i+1:]...)
		if err := s.templates.Set(next); err != nil {
			return nil, err
		}
		s.notify.Progress(fmt.Sprintf("Template %q duplicated", list[i].Name), 1500*time.Millisecond)
		out := cp.Clone()
		return &out, nil
	}
	return nil, fmt.Errorf("template %d: %w", id, apperr.ErrNotFound)
}

// Reorder moves the template at from to position to.
func (s *Store) Reorder(from, to int) error {
	src := s.templates.Get()
	if from < 0 || from >= len(src) || to < 0 || to >= len(src) {
		return fmt.Errorf("%w: reorder out of range", apperr.ErrValidation)
	}
	if from == to {
		return nil
	}
	list := append([]Template(nil), src...)
	moved := list[from]
	list = append(list[:from], list[from+1:]...)
	out := make([]Template, 0, len(src))
	out = append(out, list[:to]...)
	out = append(out, moved)
	out = append(out, list[to:]...)
	return s.templates.Set(out)
}

// Active returns the active template id, if one is selected.
func (s *Store) Active() (int64, bool) {
	raw, ok, err := s.kv.Get(keyActive)
	if err != nil || !ok {
		return 0, false
	}
	var idStr string
	if err := json.Unmarshal(raw, &idStr); err != nil || idStr == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SetActive selects the template driving page operations.
func (s *Store) SetActive(id int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	raw, _ := json.Marshal(strconv.FormatInt(id, 10))
	return s.kv.Set(keyActive, raw)
}

// ClearActive drops the active selection.
func (s *Store) ClearActive() error {
	return s.kv.Delete(keyActive)
}

// ActiveTemplate resolves the active selection to its template.
func (s *Store) ActiveTemplate() (*Template, error) {
	id, ok := s.Active()
	if !ok {
		return nil, fmt.Errorf("no active template: %w", apperr.ErrNotFound)
	}
	return s.Get(id)
}

// EditorDraft returns the editor-session property draft for a template,
// seeded from the saved template when no draft exists yet. Destructive
// draft edits go through SetUndoable with the long editor grace period.
func (s *Store) EditorDraft(id int64) (*undoable.Store[[]Property], error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[id]; ok {
		return d, nil
	}
	d, err := undoable.New(s.kv, draftKey(id), EditorGrace, cloneProperties(t.Properties))
	if err != nil {
		return nil, err
	}
	s.drafts[id] = d
	return d, nil
}

// DiscardDraft removes a template's editor draft from memory and storage.
func (s *Store) DiscardDraft(id int64) error {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return s.kv.Delete(draftKey(id))
}

func draftKey(id int64) string {
	return keyDraftPrefix + strconv.FormatInt(id, 10)
}

// newID returns a fresh template id: the current unix-milli timestamp,
// bumped when two creations land within the same millisecond.
func (s *Store) newID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func validateProperties(props []Property) error {
	seen := make(map[int]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: property %d attached twice", apperr.ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
