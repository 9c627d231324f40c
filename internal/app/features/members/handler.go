// Package members lists, edits, and removes membership rows in the
// active workspace. Rows are created elsewhere (invites, joins, settings
// saves); removal here is the only hard delete in the app.
package members

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// Handler holds the member feature's dependencies.
type Handler struct {
	Store    docstore.Store
	Resolver *membership.Resolver
	Log      *zap.Logger
}

// NewHandler constructs the members Handler.
func NewHandler(store docstore.Store, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Resolver: resolver, Log: logger}
}

// requireMembership verifies the session's active-workspace pointer
// against the store and returns the caller's membership.
func (h *Handler) requireMembership(w http.ResponseWriter, r *http.Request, adminOnly bool) (models.Member, bool) {
	u, _ := auth.CurrentUser(r)
	self, err := h.Resolver.Verify(r.Context(), u.ID, u.WorkspaceID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "not_member", "you are not a member of this workspace")
			return models.Member{}, false
		}
		h.Log.Error("verify membership failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return models.Member{}, false
	}
	if adminOnly && self.Role != models.RoleAdmin {
		httpjson.Error(w, http.StatusForbidden, "forbidden", "admin role required")
		return models.Member{}, false
	}
	return self, true
}

// ServeList returns the workspace's members newest-first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	self, ok := h.requireMembership(w, r, false)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	views := make([]memberView, 0, len(docs))
	for _, d := range docs {
		views = append(views, toView(models.MemberFromDoc(d)))
	}
	httpjson.Write(w, http.StatusOK, listResponse{Members: views})
}

// ServeGet returns a single member in the active workspace.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get member")
	defer cancel()

	self, ok := h.requireMembership(w, r, false)
	if !ok {
		return
	}

	m, ok := h.findInWorkspace(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, toView(m))
}

// HandleUpdate patches a member's editable fields. Admin only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update member")
	defer cancel()

	self, ok := h.requireMembership(w, r, true)
	if !ok {
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	m, ok := h.findInWorkspace(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	patch := map[string]any{}
	apply := func(key string, v *string, dst *string) {
		if v != nil {
			patch[key] = *v
			*dst = *v
		}
	}
	apply("name", req.Name, &m.Name)
	apply("phone", req.Phone, &m.Phone)
	apply("displayRole", req.DisplayRole, &m.DisplayRole)
	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleMember {
			httpjson.Error(w, http.StatusBadRequest, "bad_request", "role must be Admin or Member")
			return
		}
		patch["role"] = *req.Role
		m.Role = *req.Role
	}
	if req.Status != nil {
		if *req.Status != models.StatusActive && *req.Status != models.StatusInactive {
			httpjson.Error(w, http.StatusBadRequest, "bad_request", "status must be active or inactive")
			return
		}
		patch["status"] = *req.Status
		m.Status = *req.Status
	}
	if len(patch) == 0 {
		httpjson.Write(w, http.StatusOK, toView(m))
		return
	}

	if err := h.Store.Update(ctx, docstore.Members, m.ID, patch); err != nil {
		h.Log.Error("update member failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	httpjson.Write(w, http.StatusOK, toView(m))
}

// HandleDelete removes a member row. Admin only; admins cannot remove
// their own row, which keeps every workspace with at least one admin.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete member")
	defer cancel()

	self, ok := h.requireMembership(w, r, true)
	if !ok {
		return
	}

	m, ok := h.findInWorkspace(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if m.ID == self.ID {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "you cannot remove your own membership")
		return
	}

	if err := h.Store.Delete(ctx, docstore.Members, m.ID); err != nil {
		h.Log.Error("delete member failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	h.Log.Info("member removed",
		zap.String("workspace_id", self.OwnerID),
		zap.String("member_id", m.ID))
	w.WriteHeader(http.StatusNoContent)
}

// findInWorkspace loads a member and checks it belongs to the workspace.
// Cross-workspace ids report not found rather than forbidden.
func (h *Handler) findInWorkspace(ctx context.Context, w http.ResponseWriter, workspaceID, id string) (models.Member, bool) {
	docs, err := h.Store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": workspaceID},
	})
	if err != nil {
		h.Log.Error("member lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return models.Member{}, false
	}
	for _, d := range docs {
		if d.ID == id {
			return models.MemberFromDoc(d), true
		}
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "member not found")
	return models.Member{}, false
}

func toView(m models.Member) memberView {
	v := memberView{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		Phone:       m.Phone,
		Role:        m.Role,
		DisplayRole: m.DisplayRole,
		Status:      m.Status,
		Avatar:      m.Avatar,
		Pending:     m.AuthUserID == "",
	}
	if !m.JoinedAt.IsZero() {
		v.JoinedAt = m.JoinedAt.UTC().Format(time.RFC3339)
	}
	return v
}
