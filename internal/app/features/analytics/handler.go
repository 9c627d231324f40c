// Package analytics summarizes workspace activity for the dashboard.
package analytics

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// Handler holds the analytics feature's dependencies.
type Handler struct {
	Store    docstore.Store
	Resolver *membership.Resolver
	Now      func() time.Time
	Log      *zap.Logger
}

// NewHandler constructs the analytics Handler.
func NewHandler(store docstore.Store, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Resolver: resolver, Now: time.Now, Log: logger}
}

type summaryResponse struct {
	Members        int `json:"members"`
	PendingInvites int `json:"pendingInvites,omitempty"`
	Announcements  int `json:"announcements"`
	UpcomingEvents int `json:"upcomingEvents"`
	Messages       int `json:"messages"`
}

// ServeSummary returns headline counts for the active workspace.
// Pending-invite counts are included for admins only.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "workspace summary")
	defer cancel()

	u, _ := auth.CurrentUser(r)
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

	scope := map[string]any{"ownerId": self.OwnerID}
	var resp summaryResponse

	memberDocs, err := h.Store.List(ctx, docstore.Members, docstore.Query{Filters: scope})
	if err != nil {
		h.Log.Error("count members failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	for _, d := range memberDocs {
		m := models.MemberFromDoc(d)
		if m.AuthUserID == "" {
			if self.Role == models.RoleAdmin {
				resp.PendingInvites++
			}
			continue
		}
		resp.Members++
	}

	annDocs, err := h.Store.List(ctx, docstore.Announcements, docstore.Query{Filters: scope})
	if err != nil {
		h.Log.Error("count announcements failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	resp.Announcements = len(annDocs)

	eventDocs, err := h.Store.List(ctx, docstore.Events, docstore.Query{Filters: scope})
	if err != nil {
		h.Log.Error("count events failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	now := h.Now()
	for _, d := range eventDocs {
		e := models.EventFromDoc(d)
		if e.StartsAt.After(now) {
			resp.UpcomingEvents++
		}
	}

	msgDocs, err := h.Store.List(ctx, docstore.Messages, docstore.Query{Filters: scope})
	if err != nil {
		h.Log.Error("count messages failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	resp.Messages = len(msgDocs)

	httpjson.Write(w, http.StatusOK, resp)
}
