package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/tessera/internal/importfilter"
)

// ScrapePage handles POST /api/page/scrape.
//
//	@Summary		Read the attribute rows and dimensions from the live page
//	@Tags			page
//	@Produce		json
//	@Success		200	{object}	page.Snapshot
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/scrape [post]
func (h *Handler) ScrapePage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Scrape(r.Context())
	if err != nil {
		writeError(w, "scrape page", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// FindMissing handles POST /api/page/find-missing.
//
//	@Summary		List template properties absent from the page
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template selector"
//	@Success		200		{object}	MissingResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/find-missing [post]
func (h *Handler) FindMissing(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "find missing", err)
		return
	}
	missing, err := h.engine.FindMissingOnPage(r.Context(), t.Properties)
	if err != nil {
		writeError(w, "find missing", err)
		return
	}
	writeJSON(w, http.StatusOK, MissingResponse{Missing: missing})
}

// AddForms handles POST /api/page/add-forms: finds the missing
// properties and creates one page row for each.
//
//	@Summary		Add page rows for the template's missing properties
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template selector"
//	@Success		200		{object}	MissingResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/add-forms [post]
func (h *Handler) AddForms(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "add forms", err)
		return
	}
	missing, err := h.engine.FindMissingOnPage(r.Context(), t.Properties)
	if err != nil {
		writeError(w, "add forms", err)
		return
	}
	if err := h.engine.AddMissingForms(r.Context(), missing); err != nil {
		writeError(w, "add forms", err)
		return
	}
	writeJSON(w, http.StatusOK, MissingResponse{Missing: missing})
}

// FillPage handles POST /api/page/fill. With onlyMissing the write is
// restricted to properties the page does not carry yet.
//
//	@Summary		Write template values into the page rows
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template selector"
//	@Success		200		{object}	FillResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/fill [post]
func (h *Handler) FillPage(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "fill page", err)
		return
	}

	props := t.ActiveProperties()
	if req.OnlyMissing {
		props, err = h.engine.FindMissingOnPage(r.Context(), t.Properties)
		if err != nil {
			writeError(w, "fill page", err)
			return
		}
	}
	filled, err := h.engine.FillForms(r.Context(), props, "Filling")
	if err != nil {
		writeError(w, "fill page", err)
		return
	}
	writeJSON(w, http.StatusOK, FillResponse{Filled: filled})
}

// ReplacePage handles POST /api/page/replace: bulk-overwrites the page's
// values from the template.
//
//	@Summary		Overwrite page values from the template
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template selector"
//	@Success		200		{object}	FillResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/replace [post]
func (h *Handler) ReplacePage(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "replace page", err)
		return
	}
	filled, err := h.engine.ReplaceAll(r.Context(), t)
	if err != nil {
		writeError(w, "replace page", err)
		return
	}
	writeJSON(w, http.StatusOK, FillResponse{Filled: filled})
}

// CleanEmpty handles POST /api/page/clean-empty.
//
//	@Summary		Remove page rows with empty values
//	@Tags			page
//	@Produce		json
//	@Success		200	{object}	CleanResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/clean-empty [post]
func (h *Handler) CleanEmpty(w http.ResponseWriter, r *http.Request) {
	msg, err := h.engine.CleanEmpty(r.Context())
	if err != nil {
		writeError(w, "clean empty", err)
		return
	}
	writeJSON(w, http.StatusOK, CleanResponse{Message: msg})
}

// ImportPage handles POST /api/page/import: scrapes the page, classifies
// the result against the catalog and the denylist, and writes it into
// the target template in replace or merge mode.
//
//	@Summary		Import the page's properties into a template
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Import mode and target"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/import [post]
func (h *Handler) ImportPage(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Mode != "replace" && req.Mode != "merge" {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be \"replace\" or \"merge\""))
		return
	}
	t, err := h.resolveTemplate(req.TemplateID)
	if err != nil {
		writeError(w, "import page", err)
		return
	}

	snap, err := h.engine.Scrape(r.Context())
	if err != nil {
		writeError(w, "import page", err)
		return
	}
	res := importfilter.Classify(h.cat, snap, h.filter.List())

	imported := len(res.Allowed)
	switch req.Mode {
	case "replace":
		importfilter.ApplyReplace(t, res, snap)
	case "merge":
		imported = importfilter.ApplyMerge(t, res)
	}
	if err := h.templates.Update(*t); err != nil {
		writeError(w, "import page", err)
		return
	}
	saved, err := h.templates.Get(t.ID)
	if err != nil {
		writeError(w, "import page", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Template: *saved,
		Imported: imported,
		Filtered: res.Filtered,
		Unknown:  res.Unknown,
	})
}
