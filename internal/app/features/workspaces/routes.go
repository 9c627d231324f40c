package workspaces

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the workspace endpoints. Typically:
// r.Mount("/api/workspaces", workspaces.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/switch", h.HandleSwitch)
		pr.Put("/settings", h.HandleSettings)
		pr.Get("/name", h.ServeName)
		pr.Put("/name", h.HandleSetName)
	})
	return r
}
