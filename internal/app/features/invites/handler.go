// Package invites exposes invitation issuing (admin) and the two public
// redemption endpoints: accept-invite for email invitations and join for
// shareable workspace links.
package invites

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/invitetoken"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// Handler holds the invite feature's dependencies.
type Handler struct {
	Inviter  *membership.Inviter
	Resolver *membership.Resolver
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs the invites Handler.
func NewHandler(inviter *membership.Inviter, resolver *membership.Resolver, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Inviter: inviter, Resolver: resolver, Sessions: sessions, Log: logger}
}

// HandleIssue creates a pending membership and emails the invite link.
// The invite lands in the session's active workspace; the caller's role
// there is re-checked against the store before any write.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}

	var req issueRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Email == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "issue invite")
	defer cancel()

	self, err := h.Resolver.Verify(ctx, u.ID, u.WorkspaceID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "not_member", "you are not a member of this workspace")
			return
		}
		h.Log.Error("verify membership failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if self.Role != models.RoleAdmin {
		httpjson.Error(w, http.StatusForbidden, "forbidden", "only workspace admins can invite")
		return
	}

	result, err := h.Inviter.Issue(ctx, membership.IssueParams{
		WorkspaceID: self.OwnerID,
		Role:        req.Role,
		Name:        req.Name,
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrUnavailable) {
			httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
			return
		}
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	httpjson.Write(w, http.StatusCreated, issueResponse{
		MemberID:  result.Member.ID,
		Token:     result.Token,
		Link:      result.Link,
		EmailSent: result.EmailSent,
	})
}

// HandleAccept redeems an email invitation: creates the account and
// finalizes the pending membership row, then signs the new user in.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req acceptRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "accept invite")
	defer cancel()

	red, err := h.Inviter.RedeemAccept(ctx, token, req.Password)
	if err != nil {
		h.writeRedeemError(w, err)
		return
	}
	h.finishRedemption(w, r, red)
}

// HandleJoin redeems a shareable join link. Signed-in users join as
// themselves (idempotently); visitors must supply registration details.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "join workspace")
	defer cancel()

	var principal *identity.Principal
	var reg *membership.JoinRegistration
	if u, ok := auth.CurrentUser(r); ok {
		principal = &identity.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
	} else {
		var req joinRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		reg = &membership.JoinRegistration{Name: req.Name, Email: req.Email, Password: req.Password}
	}

	red, err := h.Inviter.RedeemJoin(ctx, token, principal, reg)
	if err != nil {
		h.writeRedeemError(w, err)
		return
	}
	h.finishRedemption(w, r, red)
}

// finishRedemption signs the redeemer in with the joined workspace as the
// active pointer and reports the resulting session.
func (h *Handler) finishRedemption(w http.ResponseWriter, r *http.Request, red membership.Redemption) {
	if err := h.Sessions.SignIn(w, r, auth.SessionUser{
		ID:          red.Principal.ID,
		Name:        red.Member.Name,
		Email:       red.Principal.Email,
		Avatar:      red.Member.Avatar,
		WorkspaceID: red.Member.OwnerID,
		Role:        red.Member.Role,
	}); err != nil {
		h.Log.Error("write session failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "session_failed", "could not establish session")
		return
	}
	httpjson.Write(w, http.StatusOK, redeemResponse{
		UserID:      red.Principal.ID,
		Email:       red.Principal.Email,
		Name:        red.Member.Name,
		WorkspaceID: red.Member.OwnerID,
		Role:        red.Member.Role,
		MemberID:    red.Member.ID,
	})
}

func (h *Handler) writeRedeemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invitetoken.ErrDecode):
		httpjson.Error(w, http.StatusBadRequest, "malformed_token", "the invite link is not valid")
	case errors.Is(err, membership.ErrInvalidToken):
		httpjson.Error(w, http.StatusNotFound, "invalid_token", "the invite was not found or was already used")
	case errors.Is(err, identity.ErrEmailTaken):
		httpjson.Error(w, http.StatusUnprocessableEntity, "email_taken", "an account with that email already exists")
	case identity.IsAccountCreation(err):
		httpjson.Error(w, http.StatusUnprocessableEntity, "account_creation_failed", "could not create the account")
	case errors.Is(err, docstore.ErrUnavailable):
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
	default:
		h.Log.Error("redeem failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "redeem_failed", "could not redeem the invite")
	}
}
