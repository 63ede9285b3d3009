package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tessera/internal/calc"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/template"
)

// GetCatalog handles GET /api/catalog.
//
//	@Summary		List all known property definitions
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	map[string][]catalog.Definition
//	@Security		BearerAuth
//	@Router			/catalog [get]
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	defs := make([]catalog.Definition, 0, h.cat.Len())
	for _, id := range h.cat.IDs() {
		defs = append(defs, *h.cat.Get(id))
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": defs})
}

// GetFilter handles GET /api/import-filter.
//
//	@Summary		Get the committed import denylist
//	@Tags			import
//	@Produce		json
//	@Success		200	{object}	FilterResponse
//	@Security		BearerAuth
//	@Router			/import-filter [get]
func (h *Handler) GetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FilterResponse{IDs: h.filter.List()})
}

// PutFilter handles PUT /api/import-filter: commits a full replacement
// of the denylist (the editing surface stages its copy client-side and
// submits the result).
//
//	@Summary		Replace the import denylist
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FilterResponse	true	"Denylisted property ids"
//	@Success		200		{object}	FilterResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import-filter [put]
func (h *Handler) PutFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.filter.Replace(req.IDs); err != nil {
		writeError(w, "replace import filter", err)
		return
	}
	writeJSON(w, http.StatusOK, FilterResponse{IDs: h.filter.List()})
}

// Calculate handles POST /api/calc/{target}.
//
//	@Summary		Derive one numeric property from its siblings
//	@Tags			calc
//	@Accept			json
//	@Produce		json
//	@Param			target	path		int			true	"Target property id"
//	@Param			body	body		CalcRequest	true	"Inputs or template selector"
//	@Success		200		{object}	CalcResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calc/{target} [post]
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.Atoi(chi.URLParam(r, "target"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid target property id"))
		return
	}
	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	props := req.Properties
	length, width := req.Length, req.Width
	if req.TemplateID != nil {
		t, err := h.templates.Get(*req.TemplateID)
		if err != nil {
			writeError(w, "calculate", err)
			return
		}
		props, length, width = t.Properties, t.Length, t.Width
	}

	value, ok := calc.CalculateString(target, props, length, width)
	writeJSON(w, http.StatusOK, CalcResponse{Derivable: ok, Value: value})
}

// CalcShape handles POST /api/calc/shape.
//
//	@Summary		Derive the shape option from the dimensions
//	@Tags			calc
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CalcRequest	true	"Dimensions or template selector"
//	@Success		200		{object}	ShapeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calc/shape [post]
func (h *Handler) CalcShape(w http.ResponseWriter, r *http.Request) {
	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	length, width := req.Length, req.Width
	if req.TemplateID != nil {
		t, err := h.templates.Get(*req.TemplateID)
		if err != nil {
			writeError(w, "calc shape", err)
			return
		}
		length, width = t.Length, t.Width
	}
	writeJSON(w, http.StatusOK, ShapeResponse{OptionID: calc.Shape(length, width)})
}

// GetWebhook handles GET /api/settings/webhook.
//
//	@Summary		Get the AI search webhook URL
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	WebhookRequest
//	@Security		BearerAuth
//	@Router			/settings/webhook [get]
func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	url, err := h.ai.WebhookURL()
	if err != nil {
		writeError(w, "get webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, WebhookRequest{URL: url})
}

// PutWebhook handles PUT /api/settings/webhook.
//
//	@Summary		Set or clear the AI search webhook URL
//	@Tags			settings
//	@Accept			json
//	@Param			body	body	WebhookRequest	true	"Webhook URL (empty clears)"
//	@Success		204		"Saved"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/webhook [put]
func (h *Handler) PutWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.ai.SetWebhookURL(req.URL); err != nil {
		writeError(w, "set webhook", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AISearch handles POST /api/ai/search: asks the configured webhook for
// property values matching the context text, restricted to the target
// template's schema.
//
//	@Summary		Suggest property values from free-form context text
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Context and template selector"
//	@Success		200		{object}	map[string][]template.Property
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai/search [post]
func (h *Handler) AISearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Context == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("context is required"))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "ai search", err)
		return
	}
	suggestions, err := h.ai.Search(r.Context(), h.cat, req.Context, t.Properties)
	if err != nil {
		writeError(w, "ai search", err)
		return
	}
	props := make([]template.Property, len(suggestions))
	for i, s := range suggestions {
		props[i] = template.Property{ID: s.ID, Value: s.Value}
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": props})
}
