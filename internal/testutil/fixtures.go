// Package testutil provides fixtures and HTTP helpers for handler tests.
// Tests run against the in-memory document store so they need no external
// services.
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// WithChiURLParam injects a chi URL parameter into the request context so
// handlers can be tested without a full router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures seeds documents into a memory store.
type Fixtures struct {
	t     *testing.T
	store *docstore.Memory
}

// NewFixtures wraps a memory store for seeding.
func NewFixtures(t *testing.T, store *docstore.Memory) *Fixtures {
	t.Helper()
	return &Fixtures{t: t, store: store}
}

// Store returns the underlying memory store.
func (f *Fixtures) Store() *docstore.Memory {
	return f.store
}

// CreateMember seeds an active, redeemed membership row and returns it
// with its store-assigned id.
func (f *Fixtures) CreateMember(ctx context.Context, workspaceID, authUserID, email, name, role string) models.Member {
	f.t.Helper()
	m := models.Member{
		OwnerID:    workspaceID,
		AuthUserID: authUserID,
		Email:      email,
		Name:       name,
		Role:       role,
		Status:     models.StatusActive,
		JoinedAt:   time.Now().UTC(),
	}
	doc, err := f.store.Create(ctx, docstore.Members, m.Data())
	if err != nil {
		f.t.Fatalf("seed member: %v", err)
	}
	return models.MemberFromDoc(doc)
}

// CreatePendingMember seeds an unredeemed invite row (no authUserId, no
// joinedAt).
func (f *Fixtures) CreatePendingMember(ctx context.Context, workspaceID, email, name, role, token string) models.Member {
	f.t.Helper()
	m := models.Member{
		OwnerID: workspaceID,
		Email:   email,
		Name:    name,
		Role:    role,
		Status:  models.StatusActive,
	}
	data := m.Data()
	data["inviteToken"] = token
	doc, err := f.store.Create(ctx, docstore.Members, data)
	if err != nil {
		f.t.Fatalf("seed pending member: %v", err)
	}
	return models.MemberFromDoc(doc)
}

// CreateAnnouncement seeds a workspace announcement.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, workspaceID, authorID, title, body string) models.Announcement {
	f.t.Helper()
	a := models.Announcement{OwnerID: workspaceID, AuthorID: authorID, Title: title, Body: body}
	doc, err := f.store.Create(ctx, docstore.Announcements, a.Data())
	if err != nil {
		f.t.Fatalf("seed announcement: %v", err)
	}
	return models.AnnouncementFromDoc(doc)
}

// CreateEvent seeds a workspace event.
func (f *Fixtures) CreateEvent(ctx context.Context, workspaceID, title string, startsAt time.Time) models.Event {
	f.t.Helper()
	e := models.Event{OwnerID: workspaceID, Title: title, StartsAt: startsAt}
	doc, err := f.store.Create(ctx, docstore.Events, e.Data())
	if err != nil {
		f.t.Fatalf("seed event: %v", err)
	}
	return models.EventFromDoc(doc)
}

// CreateMessage seeds a chat message.
func (f *Fixtures) CreateMessage(ctx context.Context, workspaceID, authorID, author, body string) models.Message {
	f.t.Helper()
	m := models.Message{OwnerID: workspaceID, AuthorID: authorID, Author: author, Body: body}
	doc, err := f.store.Create(ctx, docstore.Messages, m.Data())
	if err != nil {
		f.t.Fatalf("seed message: %v", err)
	}
	return models.MessageFromDoc(doc)
}

// CreateNotification seeds a notification for a recipient.
func (f *Fixtures) CreateNotification(ctx context.Context, workspaceID, recipientID, kind, text string) models.Notification {
	f.t.Helper()
	n := models.Notification{OwnerID: workspaceID, RecipientID: recipientID, Kind: kind, Text: text}
	doc, err := f.store.Create(ctx, docstore.Notifications, n.Data())
	if err != nil {
		f.t.Fatalf("seed notification: %v", err)
	}
	return models.NotificationFromDoc(doc)
}
