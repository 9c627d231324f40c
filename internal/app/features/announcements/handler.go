// Package announcements manages workspace announcement posts. Bodies are
// user-authored HTML and pass through the sanitizer before storage.
package announcements

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/htmlsanitize"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/mailer"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// Handler holds the announcement feature's dependencies. OwnerEmail is
// the platform owner's address; only that account may broadcast, and an
// empty value disables broadcasting entirely.
type Handler struct {
	Store      docstore.Store
	Resolver   *membership.Resolver
	Notifier   mailer.Notifier
	OwnerEmail string
	BaseURL    string
	Log        *zap.Logger
}

// NewHandler constructs the announcements Handler.
func NewHandler(store docstore.Store, resolver *membership.Resolver, notifier mailer.Notifier, ownerEmail, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:      store,
		Resolver:   resolver,
		Notifier:   notifier,
		OwnerEmail: ownerEmail,
		BaseURL:    baseURL,
		Log:        logger,
	}
}

type announcementView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	AuthorID  string `json:"authorId,omitempty"`
	Pinned    bool   `json:"pinned"`
	Public    bool   `json:"public"`
	CreatedAt string `json:"createdAt"`
}

type createRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
	Public bool   `json:"public"`
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

// ServeList returns the workspace's announcements, pinned first, then
// newest-first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list announcements")
	defer cancel()

	self, ok := h.verify(w, r, false)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Announcements, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		h.Log.Error("list announcements failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	var pinned, rest []announcementView
	for _, d := range docs {
		a := models.AnnouncementFromDoc(d)
		v := announcementView{
			ID:        a.ID,
			Title:     a.Title,
			Body:      a.Body,
			AuthorID:  a.AuthorID,
			Pinned:    a.Pinned,
			Public:    a.Public,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		}
		if a.Pinned {
			pinned = append(pinned, v)
		} else {
			rest = append(rest, v)
		}
	}
	out := append(pinned, rest...)
	if out == nil {
		out = []announcementView{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"announcements": out})
}

// ServePublic returns a workspace's public announcements without
// requiring a session. The workspace id comes from the URL; only posts
// flagged public are exposed, and author ids are withheld.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "public announcements")
	defer cancel()

	workspaceID := chi.URLParam(r, "workspaceId")
	docs, err := h.Store.List(ctx, docstore.Announcements, docstore.Query{
		Filters: map[string]any{"ownerId": workspaceID, "public": true},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		h.Log.Error("public announcements failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	var pinned, rest []announcementView
	for _, d := range docs {
		a := models.AnnouncementFromDoc(d)
		v := announcementView{
			ID:        a.ID,
			Title:     a.Title,
			Body:      a.Body,
			Pinned:    a.Pinned,
			Public:    true,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		}
		if a.Pinned {
			pinned = append(pinned, v)
		} else {
			rest = append(rest, v)
		}
	}
	out := append(pinned, rest...)
	if out == nil {
		out = []announcementView{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"announcements": out})
}

// HandleCreate posts a new announcement. Admin only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create announcement")
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

	a := models.Announcement{
		OwnerID:  self.OwnerID,
		AuthorID: self.AuthUserID,
		Title:    req.Title,
		Body:     htmlsanitize.Sanitize(req.Body),
		Pinned:   req.Pinned,
		Public:   req.Public,
	}
	doc, err := h.Store.Create(ctx, docstore.Announcements, a.Data())
	if err != nil {
		h.Log.Error("create announcement failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	httpjson.Write(w, http.StatusCreated, announcementView{
		ID:        doc.ID,
		Title:     a.Title,
		Body:      a.Body,
		AuthorID:  a.AuthorID,
		Pinned:    a.Pinned,
		Public:    a.Public,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleDelete removes an announcement. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete announcement")
	defer cancel()

	self, ok := h.verify(w, r, true)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	docs, err := h.Store.List(ctx, docstore.Announcements, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
	})
	if err != nil {
		h.Log.Error("announcement lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	for _, d := range docs {
		if d.ID == id {
			if err := h.Store.Delete(ctx, docstore.Announcements, id); err != nil {
				h.Log.Error("delete announcement failed", zap.Error(err))
				httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "announcement not found")
}
