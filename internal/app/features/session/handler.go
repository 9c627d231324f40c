// Package session owns account login, registration, Google sign-in, and
// the current-session endpoint. Every successful entry path ends the same
// way: resolve the workspace identity and write it into the cookie.
package session

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/oauthstate"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
)

// Handler holds the session feature's dependencies.
type Handler struct {
	Sessions *auth.SessionManager
	Provider identity.Provider
	Google   *identity.GoogleVerifier
	States   *oauthstate.Store
	Resolver *membership.Resolver
	BaseURL  string
	Log      *zap.Logger
}

// NewHandler constructs the session Handler.
func NewHandler(sessions *auth.SessionManager, provider identity.Provider, google *identity.GoogleVerifier, states *oauthstate.Store, resolver *membership.Resolver, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Provider: provider,
		Google:   google,
		States:   states,
		Resolver: resolver,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Log:      logger,
	}
}

// HandleRegister creates a local account and signs it in. The new
// principal resolves to a bootstrap identity (its own empty workspace)
// unless a pending invite already matches the email.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register account")
	defer cancel()

	principal, err := h.Provider.Register(ctx, req.Email, req.Password, identity.Metadata{"name": req.Name})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}
	if principal.Name == "" {
		principal.Name = req.Name
	}

	h.signIn(w, r, principal, http.StatusCreated)
}

// HandleLogin authenticates a local account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	principal, err := h.Provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		h.Log.Error("login failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}

	h.signIn(w, r, principal, http.StatusOK)
}

// ServeCurrent returns the signed-in principal's resolved identity. The
// resolver runs on every call, so a membership created since login (an
// accepted invite, a switch in another tab) is reflected immediately.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "resolve session identity")
	defer cancel()

	principal := identity.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
	ident := h.Resolver.Resolve(ctx, &principal, h.Sessions.Profile(r))
	httpjson.Write(w, http.StatusOK, sessionResponse{
		UserID:      principal.ID,
		Name:        ident.DisplayName,
		Email:       principal.Email,
		Avatar:      ident.Avatar,
		WorkspaceID: ident.WorkspaceID,
		Role:        ident.Role,
		Bootstrap:   ident.Bootstrap(),
	})
}

// HandleLogout clears the session cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("sign out failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGoogleLogin starts the OAuth round trip.
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil || !h.Google.IsConfigured() {
		httpjson.Error(w, http.StatusNotImplemented, "not_configured", "google sign-in is not configured")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issue oauth state")
	defer cancel()

	state, err := h.States.Issue(ctx, r.URL.Query().Get("return"))
	if err != nil {
		h.Log.Error("issue oauth state failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	http.Redirect(w, r, h.Google.AuthCodeURL(state), http.StatusSeeOther)
}

// HandleGoogleCallback finishes the OAuth round trip: validate state,
// exchange the code, find or create the account, then sign in like any
// other entry path.
func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil || !h.Google.IsConfigured() {
		httpjson.Error(w, http.StatusNotImplemented, "not_configured", "google sign-in is not configured")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "google callback")
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctx, r.URL.Query().Get("state"))
	if err != nil {
		h.Log.Error("validate oauth state failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if !valid {
		httpjson.Error(w, http.StatusBadRequest, "invalid_state", "login flow expired; start again")
		return
	}

	profile, err := h.Google.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.Log.Warn("google exchange failed", zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "exchange_failed", "could not verify google account")
		return
	}

	principal, err := h.Provider.GetByEmail(ctx, profile.Email)
	if err != nil {
		// First Google sign-in: the account gets a random password the
		// user never sees; password login stays possible via reset later.
		principal, err = h.Provider.Register(ctx, profile.Email, randomPassword(), identity.Metadata{
			"name":     profile.Name,
			"avatar":   profile.Picture,
			"googleId": profile.ID,
		})
		if err != nil {
			h.writeProviderError(w, err)
			return
		}
	}
	if principal.Name == "" {
		principal.Name = profile.Name
	}
	if principal.Avatar == "" {
		principal.Avatar = profile.Picture
	}

	ident := h.Resolver.Resolve(ctx, &principal, nil)
	if err := h.Sessions.SignIn(w, r, auth.SessionUser{
		ID:          principal.ID,
		Name:        ident.DisplayName,
		Email:       principal.Email,
		Avatar:      ident.Avatar,
		WorkspaceID: ident.WorkspaceID,
		Role:        ident.Role,
	}); err != nil {
		h.Log.Error("write session failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "session_failed", "could not establish session")
		return
	}

	dest := h.BaseURL + "/"
	if returnURL != "" && strings.HasPrefix(returnURL, "/") {
		dest = h.BaseURL + returnURL
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// signIn resolves the principal's workspace identity, writes the cookie,
// and replies with the resolved session.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, principal identity.Principal, status int) {
	ident := h.Resolver.Resolve(r.Context(), &principal, nil)
	if err := h.Sessions.SignIn(w, r, auth.SessionUser{
		ID:          principal.ID,
		Name:        ident.DisplayName,
		Email:       principal.Email,
		Avatar:      ident.Avatar,
		WorkspaceID: ident.WorkspaceID,
		Role:        ident.Role,
	}); err != nil {
		h.Log.Error("write session failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "session_failed", "could not establish session")
		return
	}
	httpjson.Write(w, status, sessionResponse{
		UserID:      principal.ID,
		Name:        ident.DisplayName,
		Email:       principal.Email,
		Avatar:      ident.Avatar,
		WorkspaceID: ident.WorkspaceID,
		Role:        ident.Role,
		Bootstrap:   ident.Bootstrap(),
	})
}

func randomPassword() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(24))
}

func (h *Handler) writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		httpjson.Error(w, http.StatusUnprocessableEntity, "email_taken", "an account with that email already exists")
	case identity.IsAccountCreation(err):
		httpjson.Error(w, http.StatusUnprocessableEntity, "account_creation_failed", "could not create the account")
	default:
		h.Log.Error("identity provider error", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
	}
}
