// Package notifications serves the per-user notification feed: listing,
// marking items read, and a server-sent-events stream of new items.
package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
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

// Handler holds the notification feature's dependencies.
type Handler struct {
	Store      docstore.Store
	Subscriber docstore.Subscriber
	Resolver   *membership.Resolver
	Log        *zap.Logger
}

// NewHandler constructs the notifications Handler.
func NewHandler(store docstore.Store, sub docstore.Subscriber, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Subscriber: sub, Resolver: resolver, Log: logger}
}

type notificationView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) (models.Member, bool) {
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
	return self, true
}

// ServeList returns the signed-in user's notifications in the active
// workspace, newest first. ?unread=true filters to unread items.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list notifications")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	filters := map[string]any{
		"ownerId":     self.OwnerID,
		"recipientId": self.AuthUserID,
	}
	if r.URL.Query().Get("unread") == "true" {
		filters["read"] = false
	}
	docs, err := h.Store.List(ctx, docstore.Notifications, docstore.Query{
		Filters: filters,
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		h.Log.Error("list notifications failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	views := make([]notificationView, 0, len(docs))
	unread := 0
	for _, d := range docs {
		n := models.NotificationFromDoc(d)
		if !n.Read {
			unread++
		}
		views = append(views, notificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Text:      n.Text,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"notifications": views,
		"unreadCount":   unread,
	})
}

// HandleMarkRead marks a single notification as read. Only the
// recipient can mark their own items.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark notification read")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	docs, err := h.Store.List(ctx, docstore.Notifications, docstore.Query{
		Filters: map[string]any{
			"ownerId":     self.OwnerID,
			"recipientId": self.AuthUserID,
		},
	})
	if err != nil {
		h.Log.Error("notification lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	for _, d := range docs {
		if d.ID != id {
			continue
		}
		if err := h.Store.Update(ctx, docstore.Notifications, id, map[string]any{"read": true}); err != nil {
			h.Log.Error("mark notification read failed", zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "notification not found")
}

// HandleMarkAllRead marks every unread notification for the signed-in
// user in the active workspace.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mark all notifications read")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Notifications, docstore.Query{
		Filters: map[string]any{
			"ownerId":     self.OwnerID,
			"recipientId": self.AuthUserID,
			"read":        false,
		},
	})
	if err != nil {
		h.Log.Error("list unread notifications failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	for _, d := range docs {
		if err := h.Store.Update(ctx, docstore.Notifications, d.ID, map[string]any{"read": true}); err != nil {
			h.Log.Error("mark notification read failed", zap.String("id", d.ID), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeStream pushes new notifications over SSE until the client
// disconnects.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		httpjson.Error(w, http.StatusInternalServerError, "stream_unsupported", "streaming is not supported")
		return
	}

	events, err := h.Subscriber.Subscribe(r.Context(), docstore.Notifications, map[string]any{
		"ownerId":     self.OwnerID,
		"recipientId": self.AuthUserID,
	})
	if err != nil {
		h.Log.Error("subscribe failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		n := models.NotificationFromDoc(ev.Doc)
		payload, err := json.Marshal(notificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Text:      n.Text,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}
