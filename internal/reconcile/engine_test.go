package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/page"
	"github.com/starford/tessera/internal/status"
	"github.com/starford/tessera/internal/template"
)

// fakeAdapter records calls and serves canned snapshots.
type fakeAdapter struct {
	snap      *page.Snapshot
	scrapeErr error
	addErr    error

	addedIDs []int
	filled   []page.FillEntry
	cleaned  bool
}

func (f *fakeAdapter) Scrape(ctx context.Context) (*page.Snapshot, error) {
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return f.snap, nil
}

func (f *fakeAdapter) AddRows(ctx context.Context, ids []int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedIDs = append(f.addedIDs, ids...)
	return nil
}

func (f *fakeAdapter) Fill(ctx context.Context, entries []page.FillEntry) (int, error) {
	n := 0
	for _, e := range entries {
		if !e.Value.IsEmpty() {
			f.filled = append(f.filled, e)
			n++
		}
	}
	return n, nil
}

func (f *fakeAdapter) CleanEmpty(ctx context.Context) (string, error) {
	f.cleaned = true
	return "removed 2 empty rows", nil
}

var _ page.Adapter = (*fakeAdapter)(nil)

// recordingNotifier captures error messages for assertions.
type recordingNotifier struct {
	status.Nop
	errs []string
}

func (r *recordingNotifier) Error(message string) {
	r.errs = append(r.errs, message)
}

func props(ids ...int) []template.Property {
	out := make([]template.Property, len(ids))
	for i, id := range ids {
		out[i] = template.Property{ID: id, Value: catalog.String("1")}
	}
	return out
}

func TestFindMissingClassification(t *testing.T) {
	snap := &page.Snapshot{Properties: []page.ScrapedProperty{
		{ID: 4283}, {ID: 4285},
	}}
	tprops := []template.Property{
		{ID: 4283, Value: catalog.Bool(true)},              // on page
		{ID: 4284, Value: catalog.Bool(true)},              // missing
		{ID: 4286, Value: catalog.Null(), Ignored: true},   // ignored
		{ID: 4291, Value: catalog.String("6380")},          // missing
	}
	missing := FindMissing(tprops, snap)
	if len(missing) != 2 {
		t.Fatalf("missing = %v", missing)
	}
	if missing[0].ID != 4284 || missing[1].ID != 4291 {
		t.Errorf("missing order = %d, %d", missing[0].ID, missing[1].ID)
	}
}

func TestFindMissingOnPage(t *testing.T) {
	fa := &fakeAdapter{snap: &page.Snapshot{Properties: []page.ScrapedProperty{{ID: 4283}}}}
	e := NewEngine(fa, status.Nop{})

	missing, err := e.FindMissingOnPage(context.Background(), props(4283, 4284))
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0].ID != 4284 {
		t.Errorf("missing = %v", missing)
	}
}

func TestScrapeErrorReachesNotifier(t *testing.T) {
	rec := &recordingNotifier{}
	fa := &fakeAdapter{scrapeErr: apperr.Adapterf("no open page to operate on")}
	e := NewEngine(fa, rec)

	if _, err := e.FindMissingOnPage(context.Background(), props(4283)); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.errs) != 1 {
		t.Fatalf("notifier errors = %v", rec.errs)
	}
}

func TestAddMissingForms(t *testing.T) {
	fa := &fakeAdapter{}
	e := NewEngine(fa, status.Nop{})

	if err := e.AddMissingForms(context.Background(), props(4284, 4291)); err != nil {
		t.Fatal(err)
	}
	if len(fa.addedIDs) != 2 || fa.addedIDs[0] != 4284 {
		t.Errorf("added = %v", fa.addedIDs)
	}

	// No missing properties: no adapter round-trip.
	fa2 := &fakeAdapter{addErr: errors.New("should not be called")}
	e2 := NewEngine(fa2, status.Nop{})
	if err := e2.AddMissingForms(context.Background(), nil); err != nil {
		t.Errorf("empty add failed: %v", err)
	}
}

func TestAddMissingFormsAtomicFailure(t *testing.T) {
	rec := &recordingNotifier{}
	fa := &fakeAdapter{addErr: apperr.Adapterf("add-row control not found")}
	e := NewEngine(fa, rec)

	err := e.AddMissingForms(context.Background(), props(4284))
	if !apperr.IsAdapter(err) {
		t.Fatalf("error = %v", err)
	}
	if len(fa.addedIDs) != 0 {
		t.Error("rows added despite failure")
	}
	if len(rec.errs) != 1 {
		t.Error("failure not reported")
	}
}

func TestFillFormsSkipsEmpty(t *testing.T) {
	fa := &fakeAdapter{}
	e := NewEngine(fa, status.Nop{})

	input := []template.Property{
		{ID: 4283, Value: catalog.Bool(true)},
		{ID: 4290, Value: catalog.Null()},
		{ID: 4291, Value: catalog.String("6380")},
	}
	filled, err := e.FillForms(context.Background(), input, "")
	if err != nil {
		t.Fatal(err)
	}
	if filled != 2 {
		t.Errorf("filled = %d, want 2", filled)
	}
}

func TestReplaceAllExcludesIgnored(t *testing.T) {
	fa := &fakeAdapter{}
	e := NewEngine(fa, status.Nop{})

	tpl := &template.Template{
		Name: "t",
		Properties: []template.Property{
			{ID: 4283, Value: catalog.Bool(true)},
			{ID: 4284, Value: catalog.Bool(true), Ignored: true},
		},
	}
	filled, err := e.ReplaceAll(context.Background(), tpl)
	if err != nil {
		t.Fatal(err)
	}
	if filled != 1 {
		t.Errorf("filled = %d, want 1", filled)
	}
	if len(fa.filled) != 1 || fa.filled[0].ID != 4283 {
		t.Errorf("filled entries = %v", fa.filled)
	}
}

func TestCleanEmpty(t *testing.T) {
	fa := &fakeAdapter{}
	e := NewEngine(fa, status.Nop{})

	msg, err := e.CleanEmpty(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !fa.cleaned {
		t.Error("adapter not invoked")
	}
	if msg == "" {
		t.Error("summary message empty")
	}
}
