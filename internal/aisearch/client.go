// Package aisearch calls an operator-configured webhook that suggests
// property values from free-form product context text.
package aisearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/kvstore"
	"github.com/starford/tessera/internal/template"
)

const webhookKey = "ai-webhook-url"

// Client posts search requests to the configured webhook.
type Client struct {
	kv   kvstore.Store
	http *http.Client
}

// NewClient creates a webhook client. The URL is read from the store on
// every call, so settings changes apply without restart.
func NewClient(kv kvstore.Store) *Client {
	return &Client{kv: kv, http: &http.Client{Timeout: 60 * time.Second}}
}

// WebhookURL returns the configured webhook URL, or "" when unset.
func (c *Client) WebhookURL() (string, error) {
	raw, ok, err := c.kv.Get(webhookKey)
	if err != nil {
		return "", fmt.Errorf("aisearch: read webhook url: %w", err)
	}
	if !ok {
		return "", nil
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", fmt.Errorf("aisearch: decode webhook url: %w", err)
	}
	return url, nil
}

// SetWebhookURL persists the webhook URL. An empty URL clears it.
func (c *Client) SetWebhookURL(url string) error {
	if url == "" {
		if err := c.kv.Delete(webhookKey); err != nil {
			return fmt.Errorf("aisearch: clear webhook url: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(url)
	if err != nil {
		return err
	}
	if err := c.kv.Set(webhookKey, raw); err != nil {
		return fmt.Errorf("aisearch: persist webhook url: %w", err)
	}
	return nil
}

// schemaEntry is one property definition as sent to the webhook.
type schemaEntry struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	Type    catalog.Kind     `json:"type"`
	Options []catalog.Option `json:"options,omitempty"`
}

// Schema builds the webhook schema from the template's properties:
// catalog definitions restricted to the template's ids, skipping
// derivable properties the webhook should not guess at.
func Schema(cat *catalog.Catalog, props []template.Property) []schemaEntry {
	var out []schemaEntry
	for _, p := range props {
		def := cat.Get(p.ID)
		if def == nil || def.SearchHint == catalog.HintSkip {
			continue
		}
		out = append(out, schemaEntry{
			ID:      def.ID,
			Name:    def.Text,
			Type:    def.Kind,
			Options: def.Options,
		})
	}
	return out
}

// Suggestion is one webhook-proposed property value.
type Suggestion struct {
	ID    int
	Value catalog.Value
}

// Search posts the context text and the schema for props to the webhook
// and returns the suggested values. A missing webhook URL and a non-2xx
// response are both validation-level failures, not transport panics.
func (c *Client) Search(ctx context.Context, cat *catalog.Catalog, contextText string, props []template.Property) ([]Suggestion, error) {
	url, err := c.WebhookURL()
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("%w: webhook url is not configured", apperr.ErrValidation)
	}

	payload := struct {
		Context string        `json:"context"`
		Schema  []schemaEntry `json:"schema"`
	}{Context: contextText, Schema: Schema(cat, props)}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aisearch: call webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("aisearch: webhook returned %s", resp.Status)
	}

	var decoded struct {
		Properties []struct {
			ID    int `json:"id"`
			Value any `json:"value"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("aisearch: decode webhook response: %w", err)
	}

	out := make([]Suggestion, 0, len(decoded.Properties))
	for _, p := range decoded.Properties {
		if !cat.Has(p.ID) {
			continue
		}
		v, err := catalog.FromRaw(p.Value)
		if err != nil {
			return nil, fmt.Errorf("aisearch: property %d: %w", p.ID, err)
		}
		out = append(out, Suggestion{ID: p.ID, Value: v})
	}
	return out, nil
}
