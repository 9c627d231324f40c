// Package profile serves the signed-in user's display profile. Edits are
// a device-local override kept in the session cookie; they never touch
// the member row, so other devices keep their own view.
package profile

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
)

// Handler holds the profile feature's dependencies.
type Handler struct {
	Resolver *membership.Resolver
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs the profile Handler.
func NewHandler(resolver *membership.Resolver, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Sessions: sessions, Log: logger}
}

type profileResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Override bool   `json:"override"`
}

type updateRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

// ServeProfile returns the effective display profile: the resolved
// identity with any device-local override applied on top.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	u, _ := auth.CurrentUser(r)
	override := h.Sessions.Profile(r)
	ident := h.Resolver.Resolve(ctx, &identity.Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}, override)

	resp := profileResponse{
		Name:     ident.DisplayName,
		Email:    u.Email,
		Avatar:   ident.Avatar,
		Override: override != nil,
	}
	if override != nil {
		resp.Bio = override.Bio
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// HandleUpdate stores a device-local profile override in the session.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" && req.Avatar == "" && req.Bio == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "nothing to update")
		return
	}

	override := membership.Profile{Name: req.Name, Avatar: req.Avatar, Bio: req.Bio}
	if err := h.Sessions.SaveProfile(w, r, override); err != nil {
		h.Log.Error("save profile override failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal", "could not save profile")
		return
	}
	httpjson.Write(w, http.StatusOK, profileResponse{
		Name:     req.Name,
		Avatar:   req.Avatar,
		Bio:      req.Bio,
		Override: true,
	})
}
