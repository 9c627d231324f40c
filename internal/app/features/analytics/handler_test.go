package analytics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/features/analytics"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/testutil"
)

func newTestHandler(t *testing.T) (*analytics.Handler, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	logger := zap.NewNop()
	return analytics.NewHandler(store, membership.NewResolver(store, logger), logger), store
}

type summary struct {
	Members        int `json:"members"`
	PendingInvites int `json:"pendingInvites"`
	Announcements  int `json:"announcements"`
	UpcomingEvents int `json:"upcomingEvents"`
	Messages       int `json:"messages"`
}

func seedWorkspace(t *testing.T, store *docstore.Memory, now time.Time) {
	t.Helper()
	f := testutil.NewFixtures(t, store)
	ctx := context.Background()
	f.CreateMember(ctx, "ws-1", "ana-id", "ana@example.com", "Ana", "Admin")
	f.CreateMember(ctx, "ws-1", "ben-id", "ben@example.com", "Ben", "Member")
	f.CreatePendingMember(ctx, "ws-1", "carol@example.com", "Carol", "Member", "tok-1")
	f.CreateAnnouncement(ctx, "ws-1", "ana-id", "Welcome", "<p>hi</p>")
	f.CreateEvent(ctx, "ws-1", "Past meetup", now.Add(-24*time.Hour))
	f.CreateEvent(ctx, "ws-1", "Next meetup", now.Add(24*time.Hour))
	f.CreateMessage(ctx, "ws-1", "ana-id", "Ana", "hello")
	f.CreateMessage(ctx, "ws-1", "ben-id", "Ben", "hey")

	// Noise in another workspace must never leak into ws-1 counts.
	f.CreateMember(ctx, "ws-2", "dee-id", "dee@example.com", "Dee", "Admin")
	f.CreateAnnouncement(ctx, "ws-2", "dee-id", "Other", "x")
	f.CreateMessage(ctx, "ws-2", "dee-id", "Dee", "elsewhere")
}

func TestServeSummary_AdminSeesPendingInvites(t *testing.T) {
	h, store := newTestHandler(t)
	now := time.Now()
	h.Now = func() time.Time { return now }
	seedWorkspace(t, store, now)

	admin := &auth.SessionUser{ID: "ana-id", WorkspaceID: "ws-1", Role: "Admin"}
	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/analytics/summary", nil, admin)
	rec := httptest.NewRecorder()
	h.ServeSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var got summary
	testutil.DecodeJSON(t, rec, &got)
	want := summary{Members: 2, PendingInvites: 1, Announcements: 1, UpcomingEvents: 1, Messages: 2}
	if got != want {
		t.Errorf("summary mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestServeSummary_MemberHidesPendingInvites(t *testing.T) {
	h, store := newTestHandler(t)
	now := time.Now()
	h.Now = func() time.Time { return now }
	seedWorkspace(t, store, now)

	member := &auth.SessionUser{ID: "ben-id", WorkspaceID: "ws-1", Role: "Member"}
	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/analytics/summary", nil, member)
	rec := httptest.NewRecorder()
	h.ServeSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var got summary
	testutil.DecodeJSON(t, rec, &got)
	if got.PendingInvites != 0 {
		t.Errorf("members should not see pending invites, got %d", got.PendingInvites)
	}
	if got.Members != 2 {
		t.Errorf("expected 2 members, got %d", got.Members)
	}
}

func TestServeSummary_NonMember_Returns403(t *testing.T) {
	h, store := newTestHandler(t)
	seedWorkspace(t, store, time.Now())

	intruder := &auth.SessionUser{ID: "eve-id", WorkspaceID: "ws-1", Role: "Admin"}
	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/analytics/summary", nil, intruder)
	rec := httptest.NewRecorder()
	h.ServeSummary(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestServeSummary_StoreDown_Returns503(t *testing.T) {
	h, store := newTestHandler(t)
	f := testutil.NewFixtures(t, store)
	m := f.CreateMember(context.Background(), "ws-1", "ana-id", "ana@example.com", "Ana", "Admin")
	store.SetFailing(true)

	user := &auth.SessionUser{ID: m.AuthUserID, WorkspaceID: "ws-1", Role: "Admin"}
	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/analytics/summary", nil, user)
	rec := httptest.NewRecorder()
	h.ServeSummary(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}
