// Package catalog holds the immutable property reference data: every
// attribute the host page's admin formset knows about, keyed by numeric id.
// The catalog is embedded at build time, loaded once, and never mutated.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/properties.json
var dataFS embed.FS

// Kind is the value type of a property.
type Kind string

const (
	KindBoolean  Kind = "boolean"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
	KindText     Kind = "text"
	KindNumber   Kind = "number"
)

// Hint controls how a property participates in AI search.
type Hint string

const (
	HintNormal Hint = "normal"
	HintSkip   Hint = "skip"
)

// Option is one entry of an enumerated property's option set.
// Option ids are strings because that is how the host form encodes them.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Definition describes one property.
type Definition struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	Kind       Kind     `json:"type"`
	SearchHint Hint     `json:"searchHint,omitempty"`
	Options    []Option `json:"options,omitempty"`
}

// Enumerated reports whether the definition carries an option set.
func (d *Definition) Enumerated() bool {
	return d.Kind == KindSelect || d.Kind == KindCheckbox
}

// OptionText returns the display text for an option id, or the raw id
// when the option is unknown.
func (d *Definition) OptionText(id string) string {
	for _, opt := range d.Options {
		if opt.ID == id {
			return opt.Text
		}
	}
	return id
}

// Catalog is the full property reference set.
type Catalog struct {
	byID map[int]*Definition
	ids  []int
}

// Load parses the embedded catalog data and checks its invariants.
func Load() (*Catalog, error) {
	raw, err := dataFS.ReadFile("data/properties.json")
	if err != nil {
		return nil, fmt.Errorf("catalog: read embedded data: %w", err)
	}
	var defs []Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{byID: make(map[int]*Definition, len(defs))}
	for i := range defs {
		d := &defs[i]
		if d.ID <= 0 || d.Text == "" {
			return nil, fmt.Errorf("catalog: invalid definition at index %d", i)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate property id %d", d.ID)
		}
		// Options are present iff the kind is enumerated.
		if d.Enumerated() != (len(d.Options) > 0) {
			return nil, fmt.Errorf("catalog: property %d: options do not match kind %q", d.ID, d.Kind)
		}
		if d.SearchHint == "" {
			d.SearchHint = HintNormal
		}
		c.byID[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Ints(c.ids)
	return c, nil
}

// Get returns the definition for id, or nil when unknown. Unknown ids are
// display-only fallbacks for callers, never an error.
func (c *Catalog) Get(id int) *Definition {
	return c.byID[id]
}

// Has reports whether id resolves in the catalog.
func (c *Catalog) Has(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// IDs returns all property ids in ascending order.
func (c *Catalog) IDs() []int {
	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// FindByText returns the definition whose display text matches exactly,
// or nil when absent.
func (c *Catalog) FindByText(text string) *Definition {
	for _, id := range c.ids {
		if d := c.byID[id]; d.Text == text {
			return d
		}
	}
	return nil
}
