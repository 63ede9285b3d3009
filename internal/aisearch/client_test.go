package aisearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/template"
	"github.com/starford/tessera/internal/testutil"
)

func TestWebhookURLRoundTrip(t *testing.T) {
	c := NewClient(testutil.TestKV(t))

	url, err := c.WebhookURL()
	if err != nil {
		t.Fatal(err)
	}
	if url != "" {
		t.Errorf("fresh store url = %q", url)
	}

	if err := c.SetWebhookURL("https://hooks.example.com/x"); err != nil {
		t.Fatal(err)
	}
	url, _ = c.WebhookURL()
	if url != "https://hooks.example.com/x" {
		t.Errorf("url = %q", url)
	}

	if err := c.SetWebhookURL(""); err != nil {
		t.Fatal(err)
	}
	url, _ = c.WebhookURL()
	if url != "" {
		t.Errorf("url after clear = %q", url)
	}
}

func TestSchemaSkipsDerivableProperties(t *testing.T) {
	cat := testutil.TestCatalog(t)
	props := []template.Property{
		{ID: 4283},                  // boolean, searchable
		{ID: catalog.PropTileArea},  // derivable, hint skip
		{ID: 99999},                 // unknown
		{ID: 4285},                  // select with options
	}
	schema := Schema(cat, props)
	if len(schema) != 2 {
		t.Fatalf("schema = %+v", schema)
	}
	if schema[0].ID != 4283 || schema[1].ID != 4285 {
		t.Errorf("schema ids = %d, %d", schema[0].ID, schema[1].ID)
	}
	if len(schema[1].Options) == 0 {
		t.Error("select options missing from schema")
	}
}

func TestSearchRequiresWebhook(t *testing.T) {
	c := NewClient(testutil.TestKV(t))
	_, err := c.Search(context.Background(), testutil.TestCatalog(t), "context", nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("error = %v", err)
	}
}

func TestSearchPostsAndDecodes(t *testing.T) {
	cat := testutil.TestCatalog(t)

	var received struct {
		Context string `json:"context"`
		Schema  []struct {
			ID int `json:"id"`
		} `json:"schema"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Error(err)
		}
		_, _ = w.Write([]byte(`{"properties":[
			{"id":4283,"value":true},
			{"id":4285,"value":"6321"},
			{"id":99999,"value":"dropped"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(testutil.TestKV(t))
	_ = c.SetWebhookURL(srv.URL)

	got, err := c.Search(context.Background(), cat, "керамогранит испания", []template.Property{
		{ID: 4283}, {ID: 4285},
	})
	if err != nil {
		t.Fatal(err)
	}

	if received.Context != "керамогранит испания" {
		t.Errorf("posted context = %q", received.Context)
	}
	if len(received.Schema) != 2 {
		t.Errorf("posted schema = %+v", received.Schema)
	}

	// Unknown ids are dropped from the suggestions.
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v", got)
	}
	if b, ok := got[0].Value.AsBool(); !ok || !b {
		t.Error("boolean suggestion lost")
	}
	if s, ok := got[1].Value.AsString(); !ok || s != "6321" {
		t.Errorf("select suggestion = %q", s)
	}
}

func TestSearchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(testutil.TestKV(t))
	_ = c.SetWebhookURL(srv.URL)

	if _, err := c.Search(context.Background(), testutil.TestCatalog(t), "x", nil); err == nil {
		t.Error("non-2xx response accepted")
	}
}
