package events_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/features/events"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/testutil"
)

func newTestHandler(t *testing.T) (*events.Handler, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	logger := zap.NewNop()
	return events.NewHandler(store, membership.NewResolver(store, logger), logger), store
}

func adminSession(t *testing.T, store *docstore.Memory) *auth.SessionUser {
	t.Helper()
	m := testutil.NewFixtures(t, store).CreateMember(
		context.Background(), "ws-1", "admin-id", "admin@example.com", "Admin", "Admin")
	return &auth.SessionUser{ID: m.AuthUserID, Email: m.Email, WorkspaceID: "ws-1", Role: "Admin"}
}

func TestHandleCreate_AndListOrderedByStart(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)

	later := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	sooner := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)

	for _, body := range []map[string]string{
		{"title": "Later meetup", "startsAt": later},
		{"title": "Sooner meetup", "startsAt": sooner},
		{"title": "Sometime"},
	} {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events", body, admin)
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %q: expected %d, got %d: %s", body["title"], http.StatusCreated, rec.Code, rec.Body.String())
		}
	}

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/events", nil, admin)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	var resp struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(resp.Events))
	}
	if resp.Events[0].Title != "Sooner meetup" || resp.Events[1].Title != "Later meetup" || resp.Events[2].Title != "Sometime" {
		t.Errorf("unexpected order: %+v", resp.Events)
	}
}

func TestHandleCreate_EndBeforeStart_Returns400(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)

	start := time.Now().Add(4 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events", map[string]string{
		"title": "Backwards", "startsAt": start, "endsAt": end,
	}, admin)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleCreate_NonAdmin_Returns403(t *testing.T) {
	h, store := newTestHandler(t)
	m := testutil.NewFixtures(t, store).CreateMember(
		context.Background(), "ws-1", "ben-id", "ben@example.com", "Ben", "Member")
	user := &auth.SessionUser{ID: m.AuthUserID, WorkspaceID: "ws-1", Role: "Member"}

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events", map[string]string{
		"title": "Nope",
	}, user)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleComment_AndListOldestFirst(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)
	ctx := context.Background()
	ev := testutil.NewFixtures(t, store).CreateEvent(ctx, "ws-1", "Meetup", time.Now())

	for _, text := range []string{"first!", "see you there"} {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events/"+ev.ID+"/comments", map[string]string{
			"text": text,
		}, admin)
		req = testutil.WithChiURLParam(req, "id", ev.ID)
		rec := httptest.NewRecorder()
		h.HandleComment(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("comment %q: expected %d, got %d: %s", text, http.StatusCreated, rec.Code, rec.Body.String())
		}
		time.Sleep(2 * time.Millisecond)
	}

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/events/"+ev.ID+"/comments", nil, admin)
	req = testutil.WithChiURLParam(req, "id", ev.ID)
	rec := httptest.NewRecorder()
	h.ServeComments(rec, req)

	var resp struct {
		Comments []struct {
			AuthorID string `json:"authorId"`
			Text     string `json:"text"`
		} `json:"comments"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(resp.Comments))
	}
	if resp.Comments[0].Text != "first!" || resp.Comments[1].Text != "see you there" {
		t.Errorf("unexpected order: %+v", resp.Comments)
	}
	if resp.Comments[0].AuthorID != "admin-id" {
		t.Errorf("expected author admin-id, got %q", resp.Comments[0].AuthorID)
	}
}

func TestHandleComment_EventInOtherWorkspace_Returns404(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)
	ev := testutil.NewFixtures(t, store).CreateEvent(context.Background(), "ws-other", "Theirs", time.Now())

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events/"+ev.ID+"/comments", map[string]string{
		"text": "hello?",
	}, admin)
	req = testutil.WithChiURLParam(req, "id", ev.ID)
	rec := httptest.NewRecorder()
	h.HandleComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if n := store.Count(docstore.Comments, nil); n != 0 {
		t.Errorf("cross-workspace comment must not write, got %d rows", n)
	}
}

func TestHandleReact_SameUserAndType_NoDuplicate(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)
	ev := testutil.NewFixtures(t, store).CreateEvent(context.Background(), "ws-1", "Meetup", time.Now())

	react := func() *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/events/"+ev.ID+"/reactions", map[string]string{
			"type": "like",
		}, admin)
		req = testutil.WithChiURLParam(req, "id", ev.ID)
		rec := httptest.NewRecorder()
		h.HandleReact(rec, req)
		return rec
	}

	if rec := react(); rec.Code != http.StatusCreated {
		t.Fatalf("first reaction: expected %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if rec := react(); rec.Code != http.StatusOK {
		t.Fatalf("repeat reaction: expected %d, got %d", http.StatusOK, rec.Code)
	}
	if n := store.Count(docstore.Reactions, map[string]any{"eventId": ev.ID, "userId": "admin-id", "type": "like"}); n != 1 {
		t.Errorf("expected 1 reaction row, got %d", n)
	}
}

func TestServeList_ScopedToWorkspace(t *testing.T) {
	h, store := newTestHandler(t)
	admin := adminSession(t, store)
	ctx := context.Background()
	f := testutil.NewFixtures(t, store)
	f.CreateEvent(ctx, "ws-1", "Ours", time.Now())
	f.CreateEvent(ctx, "ws-other", "Theirs", time.Now())

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/events", nil, admin)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	var resp struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Events) != 1 || resp.Events[0].Title != "Ours" {
		t.Errorf("expected only this workspace's events, got %+v", resp.Events)
	}
}
