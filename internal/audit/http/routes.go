package audithttp

import "github.com/go-chi/chi/v5"

// MountRoutes mendaftarkan endpoint jejak audit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleList)
	r.Get("/summary", h.handleSummary)
	r.Get("/entity/{entity}/{id}", h.handleEntityHistory)
}
