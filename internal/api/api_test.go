package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/tessera/internal/aisearch"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/importfilter"
	"github.com/starford/tessera/internal/page"
	"github.com/starford/tessera/internal/reconcile"
	"github.com/starford/tessera/internal/status"
	"github.com/starford/tessera/internal/template"
	"github.com/starford/tessera/internal/testutil"
)

// fakeAdapter serves a canned snapshot and records page mutations.
type fakeAdapter struct {
	snap     *page.Snapshot
	addedIDs []int
	filled   int
}

func (f *fakeAdapter) Scrape(ctx context.Context) (*page.Snapshot, error) {
	if f.snap == nil {
		return &page.Snapshot{}, nil
	}
	return f.snap, nil
}

func (f *fakeAdapter) AddRows(ctx context.Context, ids []int) error {
	f.addedIDs = append(f.addedIDs, ids...)
	return nil
}

func (f *fakeAdapter) Fill(ctx context.Context, entries []page.FillEntry) (int, error) {
	n := 0
	for _, e := range entries {
		if !e.Value.IsEmpty() {
			n++
		}
	}
	f.filled += n
	return n, nil
}

func (f *fakeAdapter) CleanEmpty(ctx context.Context) (string, error) {
	return "removed 1 empty rows", nil
}

type env struct {
	templates *template.Store
	adapter   *fakeAdapter
	server    *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	kv := testutil.TestKV(t)
	cat := testutil.TestCatalog(t)

	templates, err := template.NewStore(kv, cat, status.Nop{})
	if err != nil {
		t.Fatal(err)
	}
	filter, err := importfilter.New(kv, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	adapter := &fakeAdapter{}
	engine := reconcile.NewEngine(adapter, status.Nop{})
	ai := aisearch.NewClient(kv)

	h := NewHandler(cat, templates, filter, engine, ai)
	srv := httptest.NewServer(NewRouter(h, false, "", nil))
	t.Cleanup(srv.Close)

	return &env{templates: templates, adapter: adapter, server: srv}
}

func (e *env) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestTemplateCRUD(t *testing.T) {
	e := newEnv(t)

	var created TemplateDetail
	code := e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "Плитка 60x60"}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create code = %d", code)
	}
	if created.ID == 0 || created.Name != "Плитка 60x60" {
		t.Fatalf("created = %+v", created)
	}

	created.Length = "60,5"
	created.Properties = []template.Property{{ID: 4283, Value: catalog.Bool(true)}}
	var updated TemplateDetail
	code = e.do(t, http.MethodPut, fmt.Sprintf("/templates/%d", created.ID), created, &updated)
	if code != http.StatusOK {
		t.Fatalf("update code = %d", code)
	}
	if updated.Length != "60.5" {
		t.Errorf("length not sanitized: %q", updated.Length)
	}

	var list struct {
		Templates []TemplateDetail `json:"templates"`
	}
	if code := e.do(t, http.MethodGet, "/templates", nil, &list); code != http.StatusOK {
		t.Fatalf("list code = %d", code)
	}
	if len(list.Templates) != 1 {
		t.Fatalf("list = %+v", list.Templates)
	}

	if code := e.do(t, http.MethodDelete, fmt.Sprintf("/templates/%d", created.ID), nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete code = %d", code)
	}
	if code := e.do(t, http.MethodGet, fmt.Sprintf("/templates/%d", created.ID), nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete code = %d", code)
	}

	var undo struct {
		Undone bool `json:"undone"`
	}
	e.do(t, http.MethodPost, "/templates/undo", nil, &undo)
	if !undo.Undone {
		t.Fatal("undo within grace failed")
	}
	if code := e.do(t, http.MethodGet, fmt.Sprintf("/templates/%d", created.ID), nil, nil); code != http.StatusOK {
		t.Errorf("get after undo code = %d", code)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	e := newEnv(t)
	var errBody errResponse
	code := e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "  "}, &errBody)
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d", code)
	}
	if errBody.Error == "" {
		t.Error("empty error body")
	}
}

func TestDuplicateAndReorder(t *testing.T) {
	e := newEnv(t)
	var a, b TemplateDetail
	e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "A"}, &a)
	e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "B"}, &b)

	var cp TemplateDetail
	code := e.do(t, http.MethodPost, fmt.Sprintf("/templates/%d/duplicate", a.ID), nil, &cp)
	if code != http.StatusCreated {
		t.Fatalf("duplicate code = %d", code)
	}

	var list struct {
		Templates []TemplateDetail `json:"templates"`
	}
	e.do(t, http.MethodGet, "/templates", nil, &list)
	if len(list.Templates) != 3 || list.Templates[1].ID != cp.ID {
		t.Fatalf("copy not at source+1: %+v", list.Templates)
	}

	if code := e.do(t, http.MethodPost, "/templates/reorder", ReorderRequest{From: 2, To: 0}, nil); code != http.StatusNoContent {
		t.Fatalf("reorder code = %d", code)
	}
	e.do(t, http.MethodGet, "/templates", nil, &list)
	if list.Templates[0].ID != b.ID {
		t.Errorf("reorder result = %+v", list.Templates)
	}
}

func TestActiveSelection(t *testing.T) {
	e := newEnv(t)
	var tpl TemplateDetail
	e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "A"}, &tpl)

	var active ActiveResponse
	e.do(t, http.MethodGet, "/templates/active", nil, &active)
	if active.ID != nil {
		t.Fatal("fresh store has an active selection")
	}

	if code := e.do(t, http.MethodPut, "/templates/active", ActiveResponse{ID: &tpl.ID}, nil); code != http.StatusNoContent {
		t.Fatalf("set active code = %d", code)
	}
	e.do(t, http.MethodGet, "/templates/active", nil, &active)
	if active.ID == nil || *active.ID != tpl.ID {
		t.Errorf("active = %v", active.ID)
	}

	if code := e.do(t, http.MethodPut, "/templates/active", ActiveResponse{}, nil); code != http.StatusNoContent {
		t.Fatalf("clear active code = %d", code)
	}
	e.do(t, http.MethodGet, "/templates/active", nil, &active)
	if active.ID != nil {
		t.Error("selection survived clearing")
	}
}

func TestImportFilterRoundTrip(t *testing.T) {
	e := newEnv(t)
	var got FilterResponse
	code := e.do(t, http.MethodPut, "/import-filter", FilterResponse{IDs: []string{"4290", "4283"}}, &got)
	if code != http.StatusOK {
		t.Fatalf("put code = %d", code)
	}
	if len(got.IDs) != 2 || got.IDs[0] != "4283" {
		t.Errorf("ids = %v", got.IDs)
	}

	e.do(t, http.MethodGet, "/import-filter", nil, &got)
	if len(got.IDs) != 2 {
		t.Errorf("reloaded = %v", got.IDs)
	}
}

func TestImportReplaceAndMerge(t *testing.T) {
	e := newEnv(t)
	e.adapter.snap = &page.Snapshot{
		Properties: []page.ScrapedProperty{
			{ID: 4283, Value: catalog.Bool(true)},
			{ID: 4290, Value: catalog.String("Nero")},
			{ID: 99999, Value: catalog.String("x")},
		},
		Length: "60",
		Width:  "30",
	}

	var tpl TemplateDetail
	e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "T"}, &tpl)
	e.do(t, http.MethodPut, "/templates/active", ActiveResponse{ID: &tpl.ID}, nil)

	var res ImportResponse
	code := e.do(t, http.MethodPost, "/page/import", ImportRequest{Mode: "replace"}, &res)
	if code != http.StatusOK {
		t.Fatalf("import code = %d", code)
	}
	if res.Unknown != 1 {
		t.Errorf("unknown = %d", res.Unknown)
	}
	if len(res.Template.Properties) != 2 {
		t.Fatalf("imported properties = %+v", res.Template.Properties)
	}
	if res.Template.Length != "60" {
		t.Errorf("length = %q", res.Template.Length)
	}
	// Factory colour arrives blanked.
	for _, p := range res.Template.Properties {
		if p.ID == 4290 && !p.Value.IsNull() {
			t.Error("factory colour value survived import")
		}
	}

	// Merge adds only ids not already present.
	e.adapter.snap.Properties = append(e.adapter.snap.Properties,
		page.ScrapedProperty{ID: 4285, Value: catalog.String("6321")})
	e.do(t, http.MethodPost, "/page/import", ImportRequest{Mode: "merge"}, &res)
	if res.Imported != 1 {
		t.Errorf("merge imported = %d", res.Imported)
	}
	if len(res.Template.Properties) != 3 {
		t.Errorf("after merge = %+v", res.Template.Properties)
	}

	var errBody errResponse
	if code := e.do(t, http.MethodPost, "/page/import", ImportRequest{Mode: "bogus"}, &errBody); code != http.StatusBadRequest {
		t.Errorf("bogus mode code = %d", code)
	}
}

func TestPageFindMissingAndFill(t *testing.T) {
	e := newEnv(t)
	e.adapter.snap = &page.Snapshot{Properties: []page.ScrapedProperty{{ID: 4283}}}

	var tpl TemplateDetail
	e.do(t, http.MethodPost, "/templates", CreateTemplateRequest{Name: "T"}, &tpl)
	tpl.Properties = []template.Property{
		{ID: 4283, Value: catalog.Bool(true)},
		{ID: 4284, Value: catalog.Bool(false)},
	}
	e.do(t, http.MethodPut, fmt.Sprintf("/templates/%d", tpl.ID), tpl, &tpl)
	e.do(t, http.MethodPut, "/templates/active", ActiveResponse{ID: &tpl.ID}, nil)

	var missing MissingResponse
	code := e.do(t, http.MethodPost, "/page/find-missing", FillRequest{}, &missing)
	if code != http.StatusOK {
		t.Fatalf("find-missing code = %d", code)
	}
	if len(missing.Missing) != 1 || missing.Missing[0].ID != 4284 {
		t.Fatalf("missing = %+v", missing.Missing)
	}

	e.do(t, http.MethodPost, "/page/add-forms", FillRequest{}, &missing)
	if len(e.adapter.addedIDs) != 1 || e.adapter.addedIDs[0] != 4284 {
		t.Errorf("added = %v", e.adapter.addedIDs)
	}

	var filled FillResponse
	e.do(t, http.MethodPost, "/page/fill", FillRequest{}, &filled)
	if filled.Filled != 2 {
		t.Errorf("filled = %d", filled.Filled)
	}

	// No active template and no explicit id: 404.
	e.do(t, http.MethodPut, "/templates/active", ActiveResponse{}, nil)
	if code := e.do(t, http.MethodPost, "/page/fill", FillRequest{}, nil); code != http.StatusNotFound {
		t.Errorf("fill without active code = %d", code)
	}
}

func TestCalcEndpoints(t *testing.T) {
	e := newEnv(t)

	var res CalcResponse
	code := e.do(t, http.MethodPost, fmt.Sprintf("/calc/%d", catalog.PropTileArea),
		CalcRequest{Length: "60", Width: "60"}, &res)
	if code != http.StatusOK {
		t.Fatalf("calc code = %d", code)
	}
	if !res.Derivable || res.Value != "0.36" {
		t.Errorf("area = %+v", res)
	}

	e.do(t, http.MethodPost, fmt.Sprintf("/calc/%d", catalog.PropPalletWeight), CalcRequest{}, &res)
	if res.Derivable {
		t.Error("pallet weight derivable with no inputs")
	}

	var shape ShapeResponse
	e.do(t, http.MethodPost, "/calc/shape", CalcRequest{Length: "60", Width: "30"}, &shape)
	if shape.OptionID != catalog.OptShapeRectangular {
		t.Errorf("shape = %q", shape.OptionID)
	}
}

func TestAuthMiddleware(t *testing.T) {
	kv := testutil.TestKV(t)
	cat := testutil.TestCatalog(t)
	templates, err := template.NewStore(kv, cat, status.Nop{})
	if err != nil {
		t.Fatal(err)
	}
	filter, err := importfilter.New(kv, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(cat, templates, filter, reconcile.NewEngine(&fakeAdapter{}, status.Nop{}), aisearch.NewClient(kv))
	srv := httptest.NewServer(NewRouter(h, true, "secret", nil))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/templates")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token code = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/templates", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token code = %d", resp.StatusCode)
	}
}
