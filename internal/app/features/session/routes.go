package session

import "github.com/go-chi/chi/v5"

// Routes mounts the session endpoints. Typically:
// r.Mount("/api/session", session.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Get("/", h.ServeCurrent)
	r.Delete("/", h.HandleLogout)
	r.Get("/google/login", h.HandleGoogleLogin)
	r.Get("/google/callback", h.HandleGoogleCallback)
	return r
}
