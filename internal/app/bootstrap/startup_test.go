package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/blob"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

func testAppConfig(t *testing.T) AppConfig {
	t.Helper()
	return AppConfig{
		StoreBackend:     "memory",
		SessionKey:       "test-session-key-must-be-32-chars-long",
		SessionName:      "hiveflow-session",
		StorageLocalPath: t.TempDir(),
		BaseURL:          "http://localhost:3000",
		ChatPollInterval: 2 * time.Second,
	}
}

func TestValidateConfig_MemoryBackend(t *testing.T) {
	cfg := testAppConfig(t)
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfig_UnknownBackend(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.StoreBackend = "sqlite"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}

func TestValidateConfig_ProdDefaultSessionKey(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.SessionKey = "dev-only-change-me-please-0123456789ABCDEF"
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for default session key in prod")
	}
}

func TestValidateConfig_HalfGoogleCredentials(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.GoogleClientID = "client-id"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error when only google_client_id is set")
	}
}

func testDeps(t *testing.T) DBDeps {
	t.Helper()
	blobs, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return DBDeps{Docs: docstore.NewMemory(), Blobs: blobs}
}

func TestBuildHandler_HealthIsPublic(t *testing.T) {
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(t), testDeps(t), zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestBuildHandler_APIRequiresSession(t *testing.T) {
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(t), testDeps(t), zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	for _, path := range []string{"/api/members", "/api/workspaces", "/api/announcements", "/api/notifications"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestBuildHandler_RegisterFlow(t *testing.T) {
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(t), testDeps(t), zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	body := `{"name":"Ana","email":"ana@example.com","password":"sekret1"}`
	req := httptest.NewRequest("POST", "/api/session/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	// The session cookie from registration unlocks the API.
	memReq := httptest.NewRequest("GET", "/api/members", nil)
	for _, c := range rec.Result().Cookies() {
		memReq.AddCookie(c)
	}
	memRec := httptest.NewRecorder()
	h.ServeHTTP(memRec, memReq)

	if memRec.Code != http.StatusOK {
		t.Errorf("members after register: expected status %d, got %d: %s", http.StatusOK, memRec.Code, memRec.Body.String())
	}
}
