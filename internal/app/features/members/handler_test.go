package members_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/features/members"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/domain/models"
	"github.com/hiveflow/hiveflow/internal/testutil"
)

func newTestHandler(t *testing.T) (*members.Handler, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	logger := zap.NewNop()
	return members.NewHandler(store, membership.NewResolver(store, logger), logger), store
}

func seedWorkspace(t *testing.T, store *docstore.Memory) (admin models.Member, member models.Member) {
	t.Helper()
	f := testutil.NewFixtures(t, store)
	ctx := context.Background()
	admin = f.CreateMember(ctx, "ws-1", "admin-id", "admin@example.com", "Admin", "Admin")
	member = f.CreateMember(ctx, "ws-1", "ben-id", "ben@example.com", "Ben", "Member")
	return admin, member
}

func sessionFor(m models.Member) *auth.SessionUser {
	return &auth.SessionUser{
		ID:          m.AuthUserID,
		Name:        m.Name,
		Email:       m.Email,
		WorkspaceID: m.OwnerID,
		Role:        m.Role,
	}
}

func TestServeList_ScopedToWorkspace(t *testing.T) {
	h, store := newTestHandler(t)
	admin, _ := seedWorkspace(t, store)
	// A member of a different workspace must not appear.
	testutil.NewFixtures(t, store).CreateMember(context.Background(), "ws-other", "x-id", "x@example.com", "X", "Member")

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/members", nil, sessionFor(admin))
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp struct {
		Members []struct {
			Email string `json:"email"`
		} `json:"members"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(resp.Members))
	}
	for _, m := range resp.Members {
		if m.Email == "x@example.com" {
			t.Error("member of another workspace leaked into the list")
		}
	}
}

func TestServeList_PointerNotBackedByMembership_Returns403(t *testing.T) {
	h, store := newTestHandler(t)
	seedWorkspace(t, store)

	// Session cookie claims ws-1 but this user has no row there.
	user := &auth.SessionUser{ID: "intruder-id", WorkspaceID: "ws-1", Role: "Admin"}
	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/members", nil, user)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleUpdate_AdminChangesRole(t *testing.T) {
	h, store := newTestHandler(t)
	admin, member := seedWorkspace(t, store)

	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/members/"+member.ID, map[string]string{
		"role": "Admin", "displayRole": "Coordinator",
	}, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", member.ID)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	docs, _ := store.List(context.Background(), docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": "ws-1", "authUserId": "ben-id"},
	})
	if len(docs) != 1 {
		t.Fatalf("expected the row to survive, got %d", len(docs))
	}
	if role, _ := docs[0].Data["role"].(string); role != "Admin" {
		t.Errorf("role: got %q, want Admin", role)
	}
	if dr, _ := docs[0].Data["displayRole"].(string); dr != "Coordinator" {
		t.Errorf("displayRole: got %q, want Coordinator", dr)
	}
}

func TestHandleUpdate_BadRole_Returns400(t *testing.T) {
	h, store := newTestHandler(t)
	admin, member := seedWorkspace(t, store)

	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/members/"+member.ID, map[string]string{
		"role": "Overlord",
	}, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", member.ID)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleUpdate_NonAdmin_Returns403(t *testing.T) {
	h, store := newTestHandler(t)
	admin, member := seedWorkspace(t, store)

	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/members/"+admin.ID, map[string]string{
		"name": "New Name",
	}, sessionFor(member))
	req = testutil.WithChiURLParam(req, "id", admin.ID)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleDelete_RemovesRow(t *testing.T) {
	h, store := newTestHandler(t)
	admin, member := seedWorkspace(t, store)

	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/members/"+member.ID, nil, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", member.ID)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if n := store.Count(docstore.Members, map[string]any{"ownerId": "ws-1"}); n != 1 {
		t.Errorf("expected 1 remaining member, got %d", n)
	}
}

func TestHandleDelete_OwnRow_Returns400(t *testing.T) {
	h, store := newTestHandler(t)
	admin, _ := seedWorkspace(t, store)

	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/members/"+admin.ID, nil, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", admin.ID)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if n := store.Count(docstore.Members, map[string]any{"ownerId": "ws-1"}); n != 2 {
		t.Errorf("expected both members kept, got %d", n)
	}
}

func TestHandleDelete_CrossWorkspaceID_Returns404(t *testing.T) {
	h, store := newTestHandler(t)
	admin, _ := seedWorkspace(t, store)
	other := testutil.NewFixtures(t, store).CreateMember(context.Background(), "ws-other", "x-id", "x@example.com", "X", "Member")

	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/members/"+other.ID, nil, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", other.ID)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if n := store.Count(docstore.Members, map[string]any{"ownerId": "ws-other"}); n != 1 {
		t.Errorf("cross-workspace row must be untouched")
	}
}

func TestServeGet_PendingMemberMarked(t *testing.T) {
	h, store := newTestHandler(t)
	admin, _ := seedWorkspace(t, store)
	pending := testutil.NewFixtures(t, store).CreatePendingMember(context.Background(), "ws-1", "ana@example.com", "Ana", "Member", "tok")

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/members/"+pending.ID, nil, sessionFor(admin))
	req = testutil.WithChiURLParam(req, "id", pending.ID)
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp struct {
		Pending bool `json:"pending"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.Pending {
		t.Error("unredeemed invite row should be reported pending")
	}
}
