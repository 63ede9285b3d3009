// Package page defines the adapter boundary to the external admin page:
// scraping the attribute formset into a snapshot and mutating it by adding
// rows, filling values, and removing empty rows. Implementations must
// never panic across this boundary; every failure to locate expected DOM
// structure is reported as an apperr.AdapterError.
package page

import (
	"context"

	"github.com/starford/tessera/internal/catalog"
)

// ScrapedProperty is one attribute row currently present on the page.
type ScrapedProperty struct {
	ID    int           `json:"id"`
	Value catalog.Value `json:"value"`
}

// Snapshot is the page's current form state: the attribute rows plus the
// two dimension fields (decimal strings, centimeters).
type Snapshot struct {
	Properties []ScrapedProperty `json:"properties"`
	Length     string            `json:"length"`
	Width      string            `json:"width"`
}

// IDs returns the set of property ids present in the snapshot.
func (s *Snapshot) IDs() map[int]struct{} {
	out := make(map[int]struct{}, len(s.Properties))
	for _, p := range s.Properties {
		out[p.ID] = struct{}{}
	}
	return out
}

// FillEntry is one value write for Fill. Entries with empty values are
// skipped (not cleared) by the adapter.
type FillEntry struct {
	ID    int           `json:"id"`
	Value catalog.Value `json:"value"`
}

// Adapter drives the external page. Calls are asynchronous round-trips
// from the caller's perspective: one request, one structured result. The
// adapter paces its own DOM mutations internally; callers never manage
// per-step callbacks. Re-filling the same id overwrites in place.
type Adapter interface {
	// Scrape reads the current attribute rows and dimension fields.
	Scrape(ctx context.Context) (*Snapshot, error)
	// AddRows creates one new attribute row per id, in order, and binds
	// each row's attribute selector to the id. When the page's add
	// control cannot be found, no rows are added and an AdapterError is
	// returned.
	AddRows(ctx context.Context, ids []int) error
	// Fill writes values into the rows whose attribute selector matches
	// each entry's id, sequentially in input order, skipping empty
	// values. Returns the number of rows written.
	Fill(ctx context.Context, entries []FillEntry) (int, error)
	// CleanEmpty removes every attribute row whose value control is
	// empty or unchecked. Returns an operator-facing summary message.
	CleanEmpty(ctx context.Context) (string, error)
}
