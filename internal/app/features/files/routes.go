package files

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the file endpoints. Typically:
// r.Mount("/api/files", files.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleUpload)
		pr.Get("/{id}/download", h.ServeDownload)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
