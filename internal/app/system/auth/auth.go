// Package auth manages the signed session cookie: the authenticated
// principal, the active-workspace pointer, and the device-local profile
// override. All three are client-held display state — the source of truth
// for workspace identity is always the membership resolver.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

const (
	isAuthKey      = "is_authenticated"
	userIDKey      = "user_id"
	userNameKey    = "user_name"
	userEmailKey   = "user_email"
	userAvatarKey  = "user_avatar"
	workspaceIDKey = "workspace_id"
	roleKey        = "workspace_role"
	profileKey     = "profile_override"
)

// SessionUser is what we cache in the session and inject into r.Context().
// WorkspaceID and Role are the active-workspace pointer; they are a display
// optimization and get rewritten on every login, redemption, and switch.
type SessionUser struct {
	ID          string
	Name        string
	Email       string
	Avatar      string
	WorkspaceID string
	Role        string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the session user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager owns the cookie store. One instance is created at startup
// and shared by all features.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager initializes the cookie store. The secure flag controls
// Secure + SameSite; use false only for local dev over http.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   86400 * 30,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// LoadSessionUser injects the session user into the request context if
// logged in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, m.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:          getString(sess, userIDKey),
				Name:        getString(sess, userNameKey),
				Email:       getString(sess, userEmailKey),
				Avatar:      getString(sess, userAvatarKey),
				WorkspaceID: getString(sess, workspaceIDKey),
				Role:        getString(sess, roleKey),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn writes the principal and its resolved workspace identity into a
// fresh session.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userAvatarKey] = u.Avatar
	sess.Values[workspaceIDKey] = u.WorkspaceID
	sess.Values[roleKey] = u.Role
	return sess.Save(r, w)
}

// SetWorkspace rewrites the active-workspace pointer. No server state is
// touched; this is the whole of "switching."
func (m *SessionManager) SetWorkspace(w http.ResponseWriter, r *http.Request, workspaceID, role string) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[workspaceIDKey] = workspaceID
	sess.Values[roleKey] = role
	return sess.Save(r, w)
}

// SignOut clears the session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Options.MaxAge = -1
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	return sess.Save(r, w)
}

// Profile returns the device-local profile override stored in the session,
// or nil when none was saved.
func (m *SessionManager) Profile(r *http.Request) *membership.Profile {
	sess, _ := m.store.Get(r, m.name)
	raw := getString(sess, profileKey)
	if raw == "" {
		return nil
	}
	var p membership.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil
	}
	return &p
}

// SaveProfile persists the profile override in the session cookie. Last
// writer wins; there is no coordination between tabs.
func (m *SessionManager) SaveProfile(w http.ResponseWriter, r *http.Request, p membership.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	sess, _ := m.store.Get(r, m.name)
	sess.Values[profileKey] = string(raw)
	return sess.Save(r, w)
}

// RequireSignedIn rejects requests without a session user with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose active-workspace role is not Admin.
// Handlers that mutate workspace state must still re-resolve before
// trusting the session copy.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		if u.Role != models.RoleAdmin {
			httpjson.Error(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestUser injects a session user directly into the request context.
// Exported for handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(sess *sessions.Session, key string) string {
	s, _ := sess.Values[key].(string)
	return s
}
