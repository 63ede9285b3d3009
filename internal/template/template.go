// Package template defines attribute templates and their persisted store.
// A template is a named, ordered set of property+value pairs (with a
// per-property ignore flag) plus the tile dimensions, representing a
// reusable attribute profile for one product line.
package template

import (
	"strings"

	"github.com/starford/tessera/internal/catalog"
)

// Property is one entry of a template. Ignored entries stay stored and
// displayed but are excluded from find-missing, fill, and replace.
type Property struct {
	ID      int           `json:"id"`
	Value   catalog.Value `json:"value"`
	Ignored bool          `json:"ignored"`
}

// Template is a user-curated attribute profile. ID is the creation
// timestamp in unix milliseconds and is unique and stable once assigned.
// Length and Width are plain decimal strings in centimeters.
type Template struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
	Length     string     `json:"length"`
	Width      string     `json:"width"`
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	cp := t
	cp.Properties = cloneProperties(t.Properties)
	return cp
}

func cloneProperties(props []Property) []Property {
	if props == nil {
		return nil
	}
	// Value payloads are immutable once constructed, so a JSON round-trip
	// is not needed; copying the slice and re-wrapping set values suffices.
	out := make([]Property, len(props))
	copy(out, props)
	for i := range out {
		if ids, ok := out[i].Value.AsSet(); ok {
			out[i].Value = catalog.Set(ids)
		}
	}
	return out
}

// HasProperty reports whether the template already carries id.
func (t *Template) HasProperty(id int) bool {
	for _, p := range t.Properties {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ActiveProperties returns the non-ignored entries in template order.
func (t *Template) ActiveProperties() []Property {
	var out []Property
	for _, p := range t.Properties {
		if !p.Ignored {
			out = append(out, p)
		}
	}
	return out
}

// Sanitize normalizes decimal separators on save: "," becomes "." in the
// dimension fields and in text/number property values. Enumerated and
// boolean values are left untouched.
func (t *Template) Sanitize(cat *catalog.Catalog) {
	t.Name = strings.TrimSpace(t.Name)
	t.Length = strings.ReplaceAll(t.Length, ",", ".")
	t.Width = strings.ReplaceAll(t.Width, ",", ".")
	for i, p := range t.Properties {
		def := cat.Get(p.ID)
		if def == nil {
			continue
		}
		if def.Kind == catalog.KindNumber || def.Kind == catalog.KindText {
			t.Properties[i].Value = p.Value.NormalizeDecimal()
		}
	}
}
