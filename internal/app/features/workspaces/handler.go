// Package workspaces lists a user's memberships, switches the active
// workspace, and saves workspace settings. Saving settings is the one
// place a bootstrap workspace gets materialized into a real membership
// row.
package workspaces

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
)

// Handler holds the workspace feature's dependencies.
type Handler struct {
	Store    docstore.Store
	Resolver *membership.Resolver
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs the workspaces Handler.
func NewHandler(store docstore.Store, resolver *membership.Resolver, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Resolver: resolver, Sessions: sessions, Log: logger}
}

// ServeList returns every workspace the user belongs to, one entry per
// workspace. A bootstrap-only user gets a single implicit entry.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list memberships")
	defer cancel()

	memberships, err := h.Resolver.Memberships(ctx, u.ID)
	if err != nil {
		h.Log.Error("list memberships failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	entries := make([]workspaceEntry, 0, len(memberships))
	for _, m := range memberships {
		e := workspaceEntry{
			WorkspaceID: m.OwnerID,
			Role:        m.Role,
			DisplayRole: m.DisplayRole,
			Name:        m.Name,
			Avatar:      m.Avatar,
			Active:      m.OwnerID == u.WorkspaceID,
		}
		if !m.JoinedAt.IsZero() {
			e.JoinedAt = m.JoinedAt.UTC().Format(time.RFC3339)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		// Bootstrap identity: the user owns an implicit workspace.
		entries = append(entries, workspaceEntry{
			WorkspaceID: u.ID,
			Role:        "Admin",
			Name:        u.Name,
			Avatar:      u.Avatar,
			Active:      u.WorkspaceID == u.ID || u.WorkspaceID == "",
		})
	}

	httpjson.Write(w, http.StatusOK, listResponse{Workspaces: entries})
}

// HandleSwitch validates the target against the membership set and
// rewrites the session's active-workspace pointer.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req switchRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.WorkspaceID == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "workspaceId is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "switch workspace")
	defer cancel()

	// Switching to your own bootstrap workspace needs no membership row.
	if req.WorkspaceID == u.ID {
		if err := h.Sessions.SetWorkspace(w, r, u.ID, "Admin"); err != nil {
			h.Log.Error("write session failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "session_failed", "could not update session")
			return
		}
		httpjson.Write(w, http.StatusOK, switchResponse{
			WorkspaceID: u.ID, Role: "Admin", Name: u.Name, Avatar: u.Avatar,
		})
		return
	}

	m, err := h.Resolver.Switch(ctx, u.ID, req.WorkspaceID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "not_member", "you are not a member of that workspace")
			return
		}
		h.Log.Error("switch failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	if err := h.Sessions.SetWorkspace(w, r, m.OwnerID, m.Role); err != nil {
		h.Log.Error("write session failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "session_failed", "could not update session")
		return
	}
	httpjson.Write(w, http.StatusOK, switchResponse{
		WorkspaceID: m.OwnerID,
		Role:        m.Role,
		Name:        m.Name,
		Avatar:      m.Avatar,
	})
}

// HandleSettings saves the user's display settings in their active
// workspace. For a bootstrap identity this materializes the self-owned
// membership row first, so the workspace survives the write.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req settingsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "save workspace settings")
	defer cancel()

	principal := identity.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
	ident := h.Resolver.Resolve(ctx, &principal, h.Sessions.Profile(r))

	m, err := h.Resolver.EnsureMembership(ctx, &principal, ident)
	if err != nil {
		h.Log.Error("materialize membership failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	patch := map[string]any{}
	if req.Name != "" {
		patch["name"] = req.Name
		m.Name = req.Name
	}
	if req.Avatar != "" {
		patch["avatar"] = req.Avatar
		m.Avatar = req.Avatar
	}
	if len(patch) > 0 {
		if err := h.Store.Update(ctx, docstore.Members, m.ID, patch); err != nil {
			h.Log.Error("save settings failed", zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
	}

	// Mirror the override into the session so other devices' rows are
	// untouched but this device renders the new values immediately.
	if err := h.Sessions.SaveProfile(w, r, membership.Profile{
		Name: req.Name, Avatar: req.Avatar, Bio: req.Bio,
	}); err != nil {
		h.Log.Warn("save profile override failed", zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, settingsResponse{
		WorkspaceID: m.OwnerID,
		MemberID:    m.ID,
		Name:        m.Name,
		Avatar:      m.Avatar,
	})
}
