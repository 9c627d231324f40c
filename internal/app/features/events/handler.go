// Package events manages the workspace event calendar.
package events

import (
	"errors"
	"net/http"
	"sort"
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

// Handler holds the event feature's dependencies.
type Handler struct {
	Store    docstore.Store
	Resolver *membership.Resolver
	Log      *zap.Logger
}

// NewHandler constructs the events Handler.
func NewHandler(store docstore.Store, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Resolver: resolver, Log: logger}
}

type eventView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	StartsAt    string `json:"startsAt,omitempty"`
	EndsAt      string `json:"endsAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, adminOnly bool) (models.Member, bool) {
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

// ServeList returns the workspace's events ordered by start time, events
// without a start time last.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list events")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Events, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
	})
	if err != nil {
		h.Log.Error("list events failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, models.EventFromDoc(d))
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].StartsAt, events[j].StartsAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toView(e))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"events": views})
}

// HandleCreate adds an event. Admin only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create event")
	defer cancel()

	self, ok := h.verify(w, r, true)
	if !ok {
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Title == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "title is required")
		return
	}

	e := models.Event{
		OwnerID:     self.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.StartsAt != "" {
		ts, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "bad_request", "startsAt must be RFC 3339")
			return
		}
		e.StartsAt = ts
	}
	if req.EndsAt != "" {
		ts, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "bad_request", "endsAt must be RFC 3339")
			return
		}
		e.EndsAt = ts
	}
	if !e.StartsAt.IsZero() && !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "endsAt is before startsAt")
		return
	}

	doc, err := h.Store.Create(ctx, docstore.Events, e.Data())
	if err != nil {
		h.Log.Error("create event failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	e.ID = doc.ID
	e.CreatedAt = doc.CreatedAt
	httpjson.Write(w, http.StatusCreated, toView(e))
}

// HandleDelete removes an event. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete event")
	defer cancel()

	self, ok := h.verify(w, r, true)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	docs, err := h.Store.List(ctx, docstore.Events, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
	})
	if err != nil {
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	for _, d := range docs {
		if d.ID == id {
			if err := h.Store.Delete(ctx, docstore.Events, id); err != nil {
				h.Log.Error("delete event failed", zap.Error(err))
				httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "event not found")
}

func toView(e models.Event) eventView {
	v := eventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !e.StartsAt.IsZero() {
		v.StartsAt = e.StartsAt.UTC().Format(time.RFC3339)
	}
	if !e.EndsAt.IsZero() {
		v.EndsAt = e.EndsAt.UTC().Format(time.RFC3339)
	}
	return v
}
