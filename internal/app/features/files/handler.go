// Package files manages workspace file uploads: multipart upload,
// listing, download, and removal. Bytes go to the blob store; metadata
// goes to the document store.
package files

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/blob"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// maxUploadBytes caps a single upload at 25 MB.
const maxUploadBytes = 25 << 20

// Handler holds the file feature's dependencies.
type Handler struct {
	Store    docstore.Store
	Blobs    blob.Store
	Resolver *membership.Resolver
	Log      *zap.Logger
}

// NewHandler constructs the files Handler.
func NewHandler(store docstore.Store, blobs blob.Store, resolver *membership.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Blobs: blobs, Resolver: resolver, Log: logger}
}

type fileView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType,omitempty"`
	UploaderID string `json:"uploaderId,omitempty"`
	CreatedAt  string `json:"createdAt"`
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

// ServeList returns the workspace's files newest-first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list files")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	docs, err := h.Store.List(ctx, docstore.Files, docstore.Query{
		Filters: map[string]any{"ownerId": self.OwnerID},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		h.Log.Error("list files failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	views := make([]fileView, 0, len(docs))
	for _, d := range docs {
		views = append(views, toView(models.FileEntryFromDoc(d)))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"files": views})
}

// HandleUpload accepts a multipart upload under the "file" field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload file")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "a multipart 'file' field is required")
		return
	}
	defer file.Close()

	key, size, err := h.Blobs.Put(ctx, header.Filename, file)
	if err != nil {
		h.Log.Error("store upload failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	entry := models.FileEntry{
		OwnerID:    self.OwnerID,
		UploaderID: self.AuthUserID,
		Name:       header.Filename,
		Key:        key,
		Size:       size,
		MimeType:   mimeType,
	}
	doc, err := h.Store.Create(ctx, docstore.Files, entry.Data())
	if err != nil {
		// Metadata write failed: drop the orphaned bytes.
		if rmErr := h.Blobs.Remove(ctx, key); rmErr != nil {
			h.Log.Warn("orphan blob cleanup failed", zap.String("key", key), zap.Error(rmErr))
		}
		h.Log.Error("record upload failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	entry.ID = doc.ID
	entry.CreatedAt = doc.CreatedAt
	httpjson.Write(w, http.StatusCreated, toView(entry))
}

// ServeDownload streams a file's bytes.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "download file")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	entry, ok := h.findInWorkspace(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rc, err := h.Blobs.Open(ctx, entry.Key)
	if err != nil {
		h.Log.Error("open blob failed", zap.String("key", entry.Key), zap.Error(err))
		httpjson.Error(w, http.StatusNotFound, "not_found", "file content is missing")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", entry.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+entry.Name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.Log.Warn("download interrupted", zap.Error(err))
	}
}

// HandleDelete removes a file's metadata and bytes. The uploader or an
// admin may delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete file")
	defer cancel()

	self, ok := h.verify(w, r)
	if !ok {
		return
	}

	entry, ok := h.findInWorkspace(ctx, w, self.OwnerID, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if self.Role != models.RoleAdmin && entry.UploaderID != self.AuthUserID {
		httpjson.Error(w, http.StatusForbidden, "forbidden", "only the uploader or an admin can delete this file")
		return
	}

	if err := h.Store.Delete(ctx, docstore.Files, entry.ID); err != nil {
		h.Log.Error("delete file failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if err := h.Blobs.Remove(ctx, entry.Key); err != nil {
		h.Log.Warn("blob cleanup failed", zap.String("key", entry.Key), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) findInWorkspace(ctx context.Context, w http.ResponseWriter, workspaceID, id string) (models.FileEntry, bool) {
	docs, err := h.Store.List(ctx, docstore.Files, docstore.Query{
		Filters: map[string]any{"ownerId": workspaceID},
	})
	if err != nil {
		h.Log.Error("file lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return models.FileEntry{}, false
	}
	for _, d := range docs {
		if d.ID == id {
			return models.FileEntryFromDoc(d), true
		}
	}
	httpjson.Error(w, http.StatusNotFound, "not_found", "file not found")
	return models.FileEntry{}, false
}

func toView(f models.FileEntry) fileView {
	return fileView{
		ID:         f.ID,
		Name:       f.Name,
		Size:       f.Size,
		MimeType:   f.MimeType,
		UploaderID: f.UploaderID,
		CreatedAt:  f.CreatedAt.UTC().Format(time.RFC3339),
	}
}
