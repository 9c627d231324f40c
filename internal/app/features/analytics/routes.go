package analytics

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the analytics endpoints. Typically:
// r.Mount("/api/analytics", analytics.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/summary", h.ServeSummary)
	})
	return r
}
