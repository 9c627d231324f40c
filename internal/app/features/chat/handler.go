// Package chat provides the workspace message feed: history, posting,
// and a server-sent-events stream of new messages.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/htmlsanitize"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// historyLimit caps how many messages the history endpoint returns.
const historyLimit = 100

// Handler holds the chat feature's dependencies.
type Handler struct {
	Store      docstore.Store
	Subscriber docstore.Subscriber
	Resolver   *membership.Resolver
	Log        *zap.Logger
}

// NewHandler constructs the chat Handler.
func NewHandler(store docstore.Store, sub docstore.Subscriber, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Subscriber: sub, Resolver: resolver, Log: logger}
}

type messageView struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

type postRequest struct {
	Body string `json:"body"`
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

// ServeHistory returns the most recent messages, oldest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "chat history")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Messages, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
		Sort:    "created_at",
		Order:   "desc",
		Limit:   historyLimit,
	})
	if err != nil {
		h.Log.Error("chat history failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	// Reverse into chronological order for display.
	views := make([]messageView, len(docs))
	for i, d := range docs {
		views[len(docs)-1-i] = toView(models.MessageFromDoc(d))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"messages": views})
}

// HandlePost appends a message to the workspace feed.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "post message")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	body := htmlsanitize.Sanitize(req.Body)
	if body == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "message body is required")
		return
	}

	m := models.Message{
		OwnerID:  self.OwnerID,
		AuthorID: self.AuthUserID,
		Author:   self.Name,
		Body:     body,
	}
	doc, err := h.Store.Create(ctx, docstore.Messages, m.Data())
	if err != nil {
		h.Log.Error("post message failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	m.ID = doc.ID
	m.CreatedAt = doc.CreatedAt
	httpjson.Write(w, http.StatusCreated, toView(m))
}

// ServeStream pushes new messages over SSE until the client disconnects.
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

	events, err := h.Subscriber.Subscribe(r.Context(), docstore.Messages, map[string]any{
		"ownerId": self.OwnerID,
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
		payload, err := json.Marshal(toView(models.MessageFromDoc(ev.Doc)))
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}

func toView(m models.Message) messageView {
	return messageView{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Author:    m.Author,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
