package announcements

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the announcement endpoints. Typically:
// r.Mount("/api/announcements", announcements.Routes(h)).
// The unauthenticated public view is mounted under /public/{workspaceId}.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/public/{workspaceId}", h.ServePublic)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Get("/global", h.ServeGlobal)
		pr.Post("/global", h.HandleBroadcast)
	})
	return r
}
