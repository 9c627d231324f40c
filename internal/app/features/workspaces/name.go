package workspaces

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// ServeName returns the active workspace's community name. The name is
// denormalized onto member rows; the oldest row that carries one wins,
// with the workspaces settings document as fallback.
func (h *Handler) ServeName(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get workspace name")
	defer cancel()

	self, err := h.Resolver.Verify(ctx, u.ID, u.WorkspaceID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "not_member", "you are not a member of this workspace")
			return
		}
		h.Log.Error("verify membership failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	name, err := h.workspaceName(ctx, self.OwnerID)
	if err != nil {
		h.Log.Error("read workspace name failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	httpjson.Write(w, http.StatusOK, nameResponse{WorkspaceID: self.OwnerID, Name: name})
}

// HandleSetName renames the workspace. Admin only. The name fans out to
// every member row so listing members is enough to label the workspace,
// and the workspaces settings document is upserted for direct reads. A
// bootstrap workspace is materialized first so the name has a row to
// live on.
func (h *Handler) HandleSetName(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req setNameRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "set workspace name")
	defer cancel()

	self, err := h.Resolver.Verify(ctx, u.ID, u.WorkspaceID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "not_member", "you are not a member of this workspace")
			return
		}
		h.Log.Error("verify membership failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if self.Role != models.RoleAdmin {
		httpjson.Error(w, http.StatusForbidden, "forbidden", "admin role required")
		return
	}

	docs, err := h.Store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
	})
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	if len(docs) == 0 {
		// Bootstrap workspace: create the self-owned admin row first.
		principal := identity.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
		ident := h.Resolver.Resolve(ctx, &principal, h.Sessions.Profile(r))
		m, err := h.Resolver.EnsureMembership(ctx, &principal, ident)
		if err != nil {
			h.Log.Error("materialize membership failed", zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
		docs = append(docs, docstore.Document{ID: m.ID})
	}

	patch := map[string]any{"workspaceName": name, "communityName": name}
	for _, d := range docs {
		if err := h.Store.Update(ctx, docstore.Members, d.ID, patch); err != nil {
			h.Log.Error("fan out workspace name failed",
				zap.String("member_id", d.ID), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
	}

	if err := h.upsertWorkspaceDoc(ctx, self.OwnerID, name); err != nil {
		// The member rows already carry the name; the settings doc is a
		// convenience copy.
		h.Log.Warn("upsert workspace doc failed", zap.Error(err))
	}

	h.Log.Info("workspace renamed",
		zap.String("workspace_id", self.OwnerID),
		zap.String("name", name))
	httpjson.Write(w, http.StatusOK, nameResponse{WorkspaceID: self.OwnerID, Name: name})
}

func (h *Handler) workspaceName(ctx context.Context, workspaceID string) (string, error) {
	docs, err := h.Store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": workspaceID},
		Sort:    "created_at",
		Order:   "asc",
	})
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if m := models.MemberFromDoc(d); m.WorkspaceName != "" {
			return m.WorkspaceName, nil
		}
	}

	settings, err := h.Store.List(ctx, docstore.Workspaces, docstore.Query{
		Filters: map[string]any{"workspaceId": workspaceID},
		Limit:   1,
	})
	if err != nil {
		return "", err
	}
	if len(settings) > 0 {
		return models.WorkspaceFromDoc(settings[0]).Name, nil
	}
	return "", nil
}

func (h *Handler) upsertWorkspaceDoc(ctx context.Context, workspaceID, name string) error {
	docs, err := h.Store.List(ctx, docstore.Workspaces, docstore.Query{
		Filters: map[string]any{"workspaceId": workspaceID},
		Limit:   1,
	})
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		return h.Store.Update(ctx, docstore.Workspaces, docs[0].ID, map[string]any{"name": name})
	}
	_, err = h.Store.Create(ctx, docstore.Workspaces, models.Workspace{
		WorkspaceID: workspaceID,
		Name:        name,
	}.Data())
	return err
}
