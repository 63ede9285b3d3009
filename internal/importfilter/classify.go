package importfilter

import (
	"strconv"

	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/page"
	"github.com/starford/tessera/internal/template"
)

// factoryColourText names the property whose scraped value is always
// blanked on import: the colour is specific to one product and must not
// travel into a reusable template.
const factoryColourText = "Фабричный цвет"

// Result is the outcome of classifying a page scrape for import.
// Filtered and Unknown are informational counts, never errors.
type Result struct {
	Allowed  []template.Property
	Filtered int
	Unknown  int
}

// Classify splits a page snapshot into importable properties, denylisted
// ones, and ids absent from the catalog. Allowed entries keep snapshot
// order and arrive with Ignored=false.
func Classify(cat *catalog.Catalog, snap *page.Snapshot, denied []string) Result {
	deniedSet := make(map[string]struct{}, len(denied))
	for _, id := range denied {
		deniedSet[id] = struct{}{}
	}

	var res Result
	for _, p := range snap.Properties {
		if _, ok := deniedSet[strconv.Itoa(p.ID)]; ok {
			res.Filtered++
			continue
		}
		def := cat.Get(p.ID)
		if def == nil {
			res.Unknown++
			continue
		}
		v := p.Value
		if def.Text == factoryColourText {
			v = catalog.Null()
		}
		res.Allowed = append(res.Allowed, template.Property{ID: p.ID, Value: v})
	}
	return res
}

// ApplyReplace overwrites the template's property list and dimensions
// with the classified scrape.
func ApplyReplace(t *template.Template, res Result, snap *page.Snapshot) {
	t.Properties = append([]template.Property(nil), res.Allowed...)
	t.Length = snap.Length
	t.Width = snap.Width
}

// ApplyMerge appends only the classified properties whose ids the
// template does not already carry. Existing entries keep their value and
// position. Returns the number of appended entries.
func ApplyMerge(t *template.Template, res Result) int {
	added := 0
	for _, p := range res.Allowed {
		if t.HasProperty(p.ID) {
			continue
		}
		t.Properties = append(t.Properties, p)
		added++
	}
	return added
}
