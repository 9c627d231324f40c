package chat

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the chat endpoints. Typically:
// r.Mount("/api/chat", chat.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeHistory)
		pr.Post("/", h.HandlePost)
		pr.Get("/stream", h.ServeStream)
	})
	return r
}
