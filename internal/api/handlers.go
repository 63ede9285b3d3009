package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tessera/internal/aisearch"
	"github.com/starford/tessera/internal/apperr"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/importfilter"
	"github.com/starford/tessera/internal/reconcile"
	"github.com/starford/tessera/internal/template"
)

// Handler holds API route handlers.
type Handler struct {
	cat       *catalog.Catalog
	templates *template.Store
	filter    *importfilter.Filter
	engine    *reconcile.Engine
	ai        *aisearch.Client
}

// NewHandler creates a new Handler.
func NewHandler(cat *catalog.Catalog, templates *template.Store, filter *importfilter.Filter, engine *reconcile.Engine, ai *aisearch.Client) *Handler {
	return &Handler{cat: cat, templates: templates, filter: filter, engine: engine, ai: ai}
}

// templateID extracts the numeric template id from the URL.
func templateID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// writeError maps domain errors to HTTP responses. Adapter failures are
// upstream (page-side) conditions, reported as 502 with their message.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case apperr.IsAdapter(err):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List all templates in display order
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	map[string][]TemplateDetail
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": h.templates.List(),
	})
}

// GetTemplate handles GET /api/templates/{id}.
//
//	@Summary		Get a single template by id
//	@Tags			templates
//	@Produce		json
//	@Param			id	path		int	true	"Template id"
//	@Success		200	{object}	TemplateDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id} [get]
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid template id"))
		return
	}
	t, err := h.templates.Get(id)
	if err != nil {
		writeError(w, "get template", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTemplate handles POST /api/templates.
//
//	@Summary		Create a new empty template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTemplateRequest	true	"Template to create"
//	@Success		201		{object}	TemplateDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates [post]
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.templates.Add(req.Name)
	if err != nil {
		writeError(w, "create template", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTemplate handles PUT /api/templates/{id}.
//
//	@Summary		Replace a template by id
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Template id"
//	@Param			body	body		TemplateDetail	true	"Full template"
//	@Success		200		{object}	TemplateDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id} [put]
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid template id"))
		return
	}
	var t template.Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t.ID = id
	if err := h.templates.Update(t); err != nil {
		writeError(w, "update template", err)
		return
	}
	saved, err := h.templates.Get(id)
	if err != nil {
		writeError(w, "update template", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteTemplate handles DELETE /api/templates/{id}.
//
//	@Summary		Delete a template (undoable within the grace window)
//	@Tags			templates
//	@Param			id	path	int	true	"Template id"
//	@Success		204	"Template deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id} [delete]
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid template id"))
		return
	}
	if err := h.templates.Delete(id); err != nil {
		writeError(w, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UndoTemplates handles POST /api/templates/undo.
//
//	@Summary		Revert the last undoable list mutation
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	map[string]bool
//	@Security		BearerAuth
//	@Router			/templates/undo [post]
func (h *Handler) UndoTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"undone": h.templates.Undo(),
	})
}

// DuplicateTemplate handles POST /api/templates/{id}/duplicate.
//
//	@Summary		Deep-copy a template next to its source
//	@Tags			templates
//	@Produce		json
//	@Param			id	path		int	true	"Template id"
//	@Success		201	{object}	TemplateDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{id}/duplicate [post]
func (h *Handler) DuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid template id"))
		return
	}
	cp, err := h.templates.Duplicate(id)
	if err != nil {
		writeError(w, "duplicate template", err)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

// ReorderTemplates handles POST /api/templates/reorder.
//
//	@Summary		Move a template between list positions
//	@Tags			templates
//	@Accept			json
//	@Param			body	body	ReorderRequest	true	"Positions"
//	@Success		204		"Reordered"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/reorder [post]
func (h *Handler) ReorderTemplates(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.templates.Reorder(req.From, req.To); err != nil {
		writeError(w, "reorder templates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActive handles GET /api/templates/active.
//
//	@Summary		Get the active template selection
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	ActiveResponse
//	@Security		BearerAuth
//	@Router			/templates/active [get]
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	var resp ActiveResponse
	if id, ok := h.templates.Active(); ok {
		resp.ID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetActive handles PUT /api/templates/active. A null id clears the
// selection.
//
//	@Summary		Set or clear the active template
//	@Tags			templates
//	@Accept			json
//	@Param			body	body	ActiveResponse	true	"Selection (null id clears)"
//	@Success		204		"Selection updated"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/active [put]
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == nil {
		if err := h.templates.ClearActive(); err != nil {
			writeError(w, "clear active", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.templates.SetActive(*req.ID); err != nil {
		writeError(w, "set active", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveTemplate returns the requested template, defaulting to the
// active selection when id is nil.
func (h *Handler) resolveTemplate(id *int64) (*template.Template, error) {
	if id != nil {
		return h.templates.Get(*id)
	}
	return h.templates.ActiveTemplate()
}
