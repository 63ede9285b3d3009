// Package reconcile diffs a template's properties against the live page
// and drives the page adapter to close the gap: finding missing rows,
// adding forms, filling values, and cleaning empty rows.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/tessera/internal/page"
	"github.com/starford/tessera/internal/status"
	"github.com/starford/tessera/internal/template"
)

// Engine executes page operations. The external DOM is a single shared
// mutable resource, so operations are serialized: the engine holds one
// mutex across each adapter round-trip and a second operation waits its
// turn rather than interleaving writes.
type Engine struct {
	mu      sync.Mutex
	adapter page.Adapter
	notify  status.Notifier
}

// NewEngine creates a reconciliation engine.
func NewEngine(adapter page.Adapter, notify status.Notifier) *Engine {
	return &Engine{adapter: adapter, notify: notify}
}

// FindMissing classifies the template's properties against a page
// snapshot and returns the entries that are neither ignored nor present
// on the page, in template order. Pure over its two inputs.
func FindMissing(props []template.Property, snap *page.Snapshot) []template.Property {
	onPage := snap.IDs()
	var missing []template.Property
	for _, p := range props {
		if p.Ignored {
			continue
		}
		if _, ok := onPage[p.ID]; ok {
			continue
		}
		missing = append(missing, p)
	}
	return missing
}

// Scrape reads the page's current form state.
func (e *Engine) Scrape(ctx context.Context) (*page.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.adapter.Scrape(ctx)
	if err != nil {
		e.notify.Error(err.Error())
		return nil, err
	}
	return snap, nil
}

// FindMissingOnPage scrapes the page and returns the template properties
// missing from it.
func (e *Engine) FindMissingOnPage(ctx context.Context, props []template.Property) ([]template.Property, error) {
	e.notify.Progress("Searching page for properties...", 2*time.Second)

	e.mu.Lock()
	snap, err := e.adapter.Scrape(ctx)
	e.mu.Unlock()
	if err != nil {
		e.notify.Error(err.Error())
		return nil, err
	}

	missing := FindMissing(props, snap)
	if len(missing) > 0 {
		e.notify.Progress(fmt.Sprintf("Missing properties: %d", len(missing)), 3*time.Second)
	} else {
		e.notify.Progress("All properties are already on the page", 3*time.Second)
	}
	return missing, nil
}

// AddMissingForms creates one attribute row per missing property, in list
// order. A missing add control fails the whole operation atomically; no
// rows are added.
func (e *Engine) AddMissingForms(ctx context.Context, missing []template.Property) error {
	if len(missing) == 0 {
		return nil
	}
	ids := make([]int, len(missing))
	for i, p := range missing {
		ids[i] = p.ID
	}
	e.notify.Progress(fmt.Sprintf("Adding %d forms...", len(ids)), time.Second)

	e.mu.Lock()
	err := e.adapter.AddRows(ctx, ids)
	e.mu.Unlock()
	if err != nil {
		e.notify.Error(err.Error())
		return err
	}
	return nil
}

// FillForms writes each property's value into its page row, in order,
// skipping empty values. label names the operation in the progress
// message ("Filling", "Replacing values for", ...).
func (e *Engine) FillForms(ctx context.Context, props []template.Property, label string) (int, error) {
	if label == "" {
		label = "Filling"
	}
	e.notify.Progress(fmt.Sprintf("%s %d properties...", label, len(props)), 2*time.Second)

	entries := make([]page.FillEntry, len(props))
	for i, p := range props {
		entries[i] = page.FillEntry{ID: p.ID, Value: p.Value}
	}

	e.mu.Lock()
	filled, err := e.adapter.Fill(ctx, entries)
	e.mu.Unlock()
	if err != nil {
		e.notify.Error(err.Error())
		return 0, err
	}
	return filled, nil
}

// ReplaceAll bulk-overwrites the page's values from every non-ignored
// template property.
func (e *Engine) ReplaceAll(ctx context.Context, t *template.Template) (int, error) {
	return e.FillForms(ctx, t.ActiveProperties(), "Replacing values for")
}

// CleanEmpty removes every attribute row with an empty value control.
func (e *Engine) CleanEmpty(ctx context.Context) (string, error) {
	e.notify.Progress("Removing empty properties...", 2*time.Second)

	e.mu.Lock()
	msg, err := e.adapter.CleanEmpty(ctx)
	e.mu.Unlock()
	if err != nil {
		e.notify.Error(err.Error())
		return "", err
	}
	if msg != "" {
		e.notify.Progress(msg, 3*time.Second)
	}
	return msg, nil
}
