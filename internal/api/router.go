package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Templates CRUD and list actions.
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates", h.CreateTemplate)
	r.Post("/templates/undo", h.UndoTemplates)
	r.Post("/templates/reorder", h.ReorderTemplates)
	r.Get("/templates/active", h.GetActive)
	r.Put("/templates/active", h.SetActive)
	r.Get("/templates/{id}", h.GetTemplate)
	r.Put("/templates/{id}", h.UpdateTemplate)
	r.Delete("/templates/{id}", h.DeleteTemplate)
	r.Post("/templates/{id}/duplicate", h.DuplicateTemplate)

	// Property catalog.
	r.Get("/catalog", h.GetCatalog)

	// Import denylist and page import.
	r.Get("/import-filter", h.GetFilter)
	r.Put("/import-filter", h.PutFilter)
	r.Post("/page/import", h.ImportPage)

	// Page operations.
	r.Post("/page/scrape", h.ScrapePage)
	r.Post("/page/find-missing", h.FindMissing)
	r.Post("/page/add-forms", h.AddForms)
	r.Post("/page/fill", h.FillPage)
	r.Post("/page/replace", h.ReplacePage)
	r.Post("/page/clean-empty", h.CleanEmpty)

	// Derived properties.
	r.Post("/calc/shape", h.CalcShape)
	r.Post("/calc/{target}", h.Calculate)

	// Settings and AI search.
	r.Get("/settings/webhook", h.GetWebhook)
	r.Put("/settings/webhook", h.PutWebhook)
	r.Post("/ai/search", h.AISearch)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
