package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the event endpoints. Typically:
// r.Mount("/api/events", events.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Get("/{id}/comments", h.ServeComments)
		pr.Post("/{id}/comments", h.HandleComment)
		pr.Get("/{id}/reactions", h.ServeReactions)
		pr.Post("/{id}/reactions", h.HandleReact)
	})
	return r
}
