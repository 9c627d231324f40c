package events

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/htmlsanitize"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

type commentView struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Author    string `json:"author,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type reactionView struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

type reactionRequest struct {
	Type string `json:"type"`
}

// ServeComments returns an event's comments oldest-first.
func (h *Handler) ServeComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list comments")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}
	eventID, ok := h.findEvent(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Comments, docstore.Query{
		Filters: map[string]any{"eventId": eventID},
		Sort:    "created_at",
		Order:   "asc",
	})
	if err != nil {
		h.Log.Error("list comments failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	views := make([]commentView, 0, len(docs))
	for _, d := range docs {
		c := models.CommentFromDoc(d)
		views = append(views, commentView{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Author:    c.Author,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"comments": views})
}

// HandleComment posts a comment on an event. Any member may comment.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create comment")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}
	eventID, ok := h.findEvent(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req commentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	text := htmlsanitize.Sanitize(req.Text)
	if text == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}

	c := models.Comment{
		OwnerID:  self.OwnerID,
		EventID:  eventID,
		AuthorID: self.AuthUserID,
		Author:   self.Name,
		Text:     text,
	}
	doc, err := h.Store.Create(ctx, docstore.Comments, c.Data())
	if err != nil {
		h.Log.Error("create comment failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	httpjson.Write(w, http.StatusCreated, commentView{
		ID:        doc.ID,
		AuthorID:  c.AuthorID,
		Author:    c.Author,
		Text:      c.Text,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// ServeReactions returns an event's reactions.
func (h *Handler) ServeReactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list reactions")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}
	eventID, ok := h.findEvent(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Reactions, docstore.Query{
		Filters: map[string]any{"eventId": eventID},
	})
	if err != nil {
		h.Log.Error("list reactions failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	views := make([]reactionView, 0, len(docs))
	for _, d := range docs {
		re := models.ReactionFromDoc(d)
		views = append(views, reactionView{
			ID:        re.ID,
			UserID:    re.UserID,
			Type:      re.Type,
			CreatedAt: re.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"reactions": views})
}

// HandleReact records the caller's reaction on an event. Reacting again
// with the same type is a no-op that returns the existing row.
func (h *Handler) HandleReact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create reaction")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}
	eventID, ok := h.findEvent(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req reactionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Type == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "type is required")
		return
	}

	existing, err := h.Store.List(ctx, docstore.Reactions, docstore.Query{
		Filters: map[string]any{"eventId": eventID, "userId": self.AuthUserID, "type": req.Type},
		Limit:   1,
	})
	if err != nil {
		h.Log.Error("reaction lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if len(existing) > 0 {
		re := models.ReactionFromDoc(existing[0])
		httpjson.Write(w, http.StatusOK, reactionView{
			ID:        re.ID,
			UserID:    re.UserID,
			Type:      re.Type,
			CreatedAt: re.CreatedAt.UTC().Format(time.RFC3339),
		})
		return
	}

	re := models.Reaction{
		OwnerID: self.OwnerID,
		EventID: eventID,
		UserID:  self.AuthUserID,
		Type:    req.Type,
	}
	doc, err := h.Store.Create(ctx, docstore.Reactions, re.Data())
	if err != nil {
		h.Log.Error("create reaction failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	httpjson.Write(w, http.StatusCreated, reactionView{
		ID:        doc.ID,
		UserID:    re.UserID,
		Type:      re.Type,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// findEvent checks the event exists in the workspace. Cross-workspace ids
// report not found.
func (h *Handler) findEvent(ctx context.Context, w http.ResponseWriter, workspaceID, id string) (string, bool) {
	docs, err := h.Store.List(ctx, docstore.Events, docstore.Query{
		Filters: map[string]any{"ownerId": workspaceID},
	})
	if err != nil {
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return "", false
	}
	for _, d := range docs {
		if d.ID == id {
			return id, true
		}
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "event not found")
	return "", false
}
