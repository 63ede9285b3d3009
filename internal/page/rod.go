package page

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
)

// Config holds browser adapter configuration.
type Config struct {
	// DebuggerURL attaches to a running Chrome via DevTools. When empty,
	// a browser is launched with LaunchBin (or rod's managed browser).
	DebuggerURL string
	LaunchBin   string
	Headless    bool

	// FormPrefix is the Django formset prefix of the attribute rows,
	// e.g. "plumbing-attributevalue-content_type-object_id".
	FormPrefix string
	// AddRowLabel is the text of the host page's "add another" control.
	AddRowLabel string

	// RowDelay paces row insertion, StepDelay paces value writes. The
	// host page runs its own change handlers per mutation; pacing keeps
	// them from being overwhelmed.
	RowDelay  time.Duration
	StepDelay time.Duration
}

// Rod implements Adapter against a live Chrome tab via the DevTools
// protocol. All DOM work runs as evaluated scripts in the page, matching
// the injected-script approach of the original tooling; rod awaits the
// returned promises, so each public method is one structured round-trip.
type Rod struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewRod creates a rod-backed adapter. No connection is made until the
// first call.
func NewRod(cfg Config) *Rod {
	if cfg.RowDelay <= 0 {
		cfg.RowDelay = 150 * time.Millisecond
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = 200 * time.Millisecond
	}
	return &Rod{cfg: cfg}
}

// Close disconnects from the browser.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page = nil
	if r.browser != nil {
		b := r.browser
		r.browser = nil
		return b.Close()
	}
	return nil
}

// ensurePage connects (or reconnects) and returns the active tab.
func (r *Rod) ensurePage(ctx context.Context) (*rod.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err != nil {
			_ = r.browser.Close()
			r.browser = nil
			r.page = nil
		}
	}

	if r.browser == nil {
		controlURL := r.cfg.DebuggerURL
		if controlURL == "" {
			l := launcher.New().Headless(r.cfg.Headless)
			if r.cfg.LaunchBin != "" {
				l = l.Bin(r.cfg.LaunchBin)
			}
			url, err := l.Launch()
			if err != nil {
				return nil, apperr.Adapterf("launch browser: %v", err)
			}
			controlURL = url
		}
		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			return nil, apperr.Adapterf("connect to browser: %v", err)
		}
		r.browser = b
	}

	if r.page == nil {
		pages, err := r.browser.Pages()
		if err != nil || len(pages) == 0 {
			return nil, apperr.Adapterf("no open page to operate on")
		}
		r.page = pages.First()
	}
	return r.page.Context(ctx), nil
}

// result is the uniform shape every page script resolves with.
type result struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r *Rod) eval(ctx context.Context, js string, args ...any) (*result, error) {
	p, err := r.ensurePage(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := p.Eval(js, args...)
	if err != nil {
		return nil, apperr.Adapterf("page script failed: %v", err)
	}
	raw, err := json.Marshal(obj.Value.Val())
	if err != nil {
		return nil, apperr.Adapterf("decode page result: %v", err)
	}
	var res result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, apperr.Adapterf("decode page result: %v", err)
	}
	if !res.OK {
		msg := res.Message
		if msg == "" {
			msg = "page structure not found"
		}
		return nil, &apperr.AdapterError{Message: msg}
	}
	return &res, nil
}

// Scrape reads the attribute rows and dimensions from the live form.
func (r *Rod) Scrape(ctx context.Context) (*Snapshot, error) {
	res, err := r.eval(ctx, scrapeJS, r.cfg.FormPrefix)
	if err != nil {
		return nil, err
	}

	var data struct {
		Properties []struct {
			ID    string `json:"id"`
			Value any    `json:"value"`
		} `json:"properties"`
		Length string `json:"length"`
		Width  string `json:"width"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, apperr.Adapterf("decode scrape data: %v", err)
	}

	snap := &Snapshot{Length: data.Length, Width: data.Width}
	for _, p := range data.Properties {
		id, err := strconv.Atoi(p.ID)
		if err != nil {
			continue // row with no attribute selected
		}
		v, err := catalog.FromRaw(p.Value)
		if err != nil {
			return nil, apperr.Adapterf("property %s: %v", p.ID, err)
		}
		snap.Properties = append(snap.Properties, ScrapedProperty{ID: id, Value: v})
	}
	return snap, nil
}

// AddRows appends one formset row per id and binds its attribute selector.
// The script verifies the add control before touching anything, so a
// missing control fails atomically.
func (r *Rod) AddRows(ctx context.Context, ids []int) error {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.Itoa(id)
	}
	_, err := r.eval(ctx, addRowsJS,
		r.cfg.FormPrefix, r.cfg.AddRowLabel, strIDs, r.cfg.RowDelay.Milliseconds())
	return err
}

// Fill writes values into matching rows sequentially, skipping empty
// values. Writing the same id again overwrites in place.
func (r *Rod) Fill(ctx context.Context, entries []FillEntry) (int, error) {
	type wireEntry struct {
		ID    string          `json:"id"`
		Value json.RawMessage `json:"value"`
	}
	wire := make([]wireEntry, 0, len(entries))
	for _, e := range entries {
		if e.Value.IsEmpty() {
			continue
		}
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return 0, fmt.Errorf("page: encode value for %d: %w", e.ID, err)
		}
		wire = append(wire, wireEntry{ID: strconv.Itoa(e.ID), Value: raw})
	}
	if len(wire) == 0 {
		return 0, nil
	}

	res, err := r.eval(ctx, fillJS, r.cfg.FormPrefix, wire, r.cfg.StepDelay.Milliseconds())
	if err != nil {
		return 0, err
	}
	var data struct {
		Filled int `json:"filled"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return 0, apperr.Adapterf("decode fill result: %v", err)
	}
	return data.Filled, nil
}

// CleanEmpty removes every row whose value control is empty or unchecked.
func (r *Rod) CleanEmpty(ctx context.Context) (string, error) {
	res, err := r.eval(ctx, cleanEmptyJS, r.cfg.FormPrefix)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

var _ Adapter = (*Rod)(nil)
