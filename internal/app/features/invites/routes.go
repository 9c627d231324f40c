package invites

import (
	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
)

// Routes mounts the admin-facing invite endpoint. Typically:
// r.Mount("/api/invites", invites.Routes(h)).
//
// The unauthenticated redemption endpoints (POST /accept-invite/{token}
// and POST /join/{token}) are registered at the API root by bootstrap so
// they keep the short paths invite email links use.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		// RequireAdmin rejects on the session's cached role; HandleIssue
		// re-checks the role against the store before issuing.
		pr.Use(auth.RequireSignedIn, auth.RequireAdmin)
		pr.Post("/", h.HandleIssue)
	})
	return r
}
