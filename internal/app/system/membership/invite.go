package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/invitetoken"
	"github.com/hiveflow/hiveflow/internal/app/system/mailer"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// ErrInvalidToken marks a well-formed token that cannot be redeemed:
// required fields missing, or the referenced pending membership is gone
// ("invite not found or already used").
var ErrInvalidToken = errors.New("membership: invalid token")

// InviterOption customises Inviter behaviour.
type InviterOption func(*Inviter)

// WithClock injects a custom clock, primarily for tests.
func WithClock(clock func() time.Time) InviterOption {
	return func(inv *Inviter) {
		if clock != nil {
			inv.now = clock
		}
	}
}

// WithSiteName overrides the site name used in invite emails.
func WithSiteName(name string) InviterOption {
	return func(inv *Inviter) {
		if name != "" {
			inv.siteName = name
		}
	}
}

// Inviter issues invite tokens and redeems them into concrete memberships.
type Inviter struct {
	store    docstore.Store
	provider identity.Provider
	notifier mailer.Notifier
	baseURL  string
	siteName string
	now      func() time.Time
	log      *zap.Logger
}

// NewInviter wires the invitation issuer/redeemer.
func NewInviter(store docstore.Store, provider identity.Provider, notifier mailer.Notifier, baseURL string, logger *zap.Logger, opts ...InviterOption) *Inviter {
	inv := &Inviter{
		store:    store,
		provider: provider,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		siteName: "HiveFlow",
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// IssueParams describes one invitation.
type IssueParams struct {
	WorkspaceID string
	Role        string
	Name        string
	Email       string
}

// IssueResult is what the issuer hands back to the admin UI.
type IssueResult struct {
	Member    models.Member
	Token     string
	Link      string
	EmailSent bool
}

// Issue creates a pending membership row, mints its token, and fires the
// invite email. The caller must already be resolved as an Admin of the
// workspace. Duplicate invites for the same email are deliberately allowed;
// each produces its own row and token. Email failure is non-fatal: the row
// stays and EmailSent reports false.
func (inv *Inviter) Issue(ctx context.Context, p IssueParams) (IssueResult, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return IssueResult{}, fmt.Errorf("invite: email is required")
	}
	if p.WorkspaceID == "" {
		return IssueResult{}, fmt.Errorf("invite: workspace id is required")
	}
	role := p.Role
	if role == "" {
		role = models.RoleMember
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}

	payload := invitetoken.Payload{
		Email:       email,
		Name:        name,
		Role:        role,
		WorkspaceID: p.WorkspaceID,
		IssuedAt:    inv.now().Format(time.RFC3339),
	}
	token, err := invitetoken.Encode(payload)
	if err != nil {
		return IssueResult{}, fmt.Errorf("invite: encode token: %w", err)
	}
	link := inv.baseURL + "/accept-invite/" + token

	m := models.Member{
		OwnerID:     p.WorkspaceID,
		Email:       email,
		Name:        name,
		Role:        role,
		DisplayRole: role,
		Status:      models.StatusActive,
		JoinedAt:    inv.now(),
		Avatar:      FallbackAvatar(name, email),
	}
	data := m.Data()
	data["inviteToken"] = token
	doc, err := inv.store.Create(ctx, docstore.Members, data)
	if err != nil {
		return IssueResult{}, fmt.Errorf("invite: create membership: %w", err)
	}
	m.ID = doc.ID
	m.CreatedAt = doc.CreatedAt

	result := IssueResult{Member: m, Token: token, Link: link}

	subject, body := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:   inv.siteName,
		Name:       name,
		Role:       role,
		InviteLink: link,
	})
	if err := inv.notifier.Send(ctx, []string{email}, subject, body); err != nil {
		inv.log.Warn("invite email failed; membership kept",
			zap.String("email", email),
			zap.String("member_id", m.ID),
			zap.Error(err))
	} else {
		result.EmailSent = true
	}

	return result, nil
}

// Redemption is the outcome of either redeem variant.
type Redemption struct {
	Principal identity.Principal
	Member    models.Member
}

// RedeemAccept consumes an accept-invite token: it requires email and
// workspaceId in the payload, finds the newest pending membership for
// (workspaceId, email), registers the account, and finalizes the row.
func (inv *Inviter) RedeemAccept(ctx context.Context, token, password string) (Redemption, error) {
	payload, err := invitetoken.Decode(token)
	if err != nil {
		return Redemption{}, err
	}
	if payload.WorkspaceID == "" || payload.Email == "" {
		return Redemption{}, ErrInvalidToken
	}

	docs, err := inv.store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": payload.WorkspaceID, "email": payload.Email},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		return Redemption{}, fmt.Errorf("redeem: lookup invite: %w", err)
	}
	pending, ok := pickPending(docs)
	if !ok {
		return Redemption{}, fmt.Errorf("%w: invite not found or already used", ErrInvalidToken)
	}

	name := payload.Name
	if name == "" {
		name = pending.Name
	}
	role := payload.Role
	if role == "" {
		role = pending.Role
	}
	if role == "" {
		role = models.RoleMember
	}

	principal, err := inv.provider.Register(ctx, payload.Email, password, identity.Metadata{
		"name":        name,
		"role":        role,
		"workspaceId": payload.WorkspaceID,
	})
	if err != nil {
		return Redemption{}, err
	}

	patch := map[string]any{
		"authUserId":  principal.ID,
		"status":      models.StatusActive,
		"joinedAt":    inv.now().Format(time.RFC3339),
		"inviteToken": nil,
	}
	if err := inv.store.Update(ctx, docstore.Members, pending.ID, patch); err != nil {
		// The account exists; losing the membership patch is worse than
		// reporting it. Surface so the user can retry the link.
		return Redemption{}, fmt.Errorf("redeem: finalize membership: %w", err)
	}

	pending.AuthUserID = principal.ID
	pending.Status = models.StatusActive
	pending.JoinedAt = inv.now()
	inv.log.Info("invite accepted",
		zap.String("workspace_id", payload.WorkspaceID),
		zap.String("member_id", pending.ID),
		zap.String("auth_user_id", principal.ID))
	return Redemption{Principal: principal, Member: pending}, nil
}

// JoinRegistration carries account details for unauthenticated join
// redemptions.
type JoinRegistration struct {
	Name     string
	Email    string
	Password string
}

// RedeemJoin consumes a join-workspace token. For an authenticated
// principal it is idempotent: the existing-membership check on
// (workspaceId, authUserId) is mandatory before any insert — this check is
// what keeps two racing redemptions from leaving two rows. For a visitor,
// reg must be provided; the account is created first, then the same
// check-and-create runs.
func (inv *Inviter) RedeemJoin(ctx context.Context, token string, p *identity.Principal, reg *JoinRegistration) (Redemption, error) {
	payload, err := invitetoken.Decode(token)
	if err != nil {
		return Redemption{}, err
	}
	if payload.WorkspaceID == "" {
		return Redemption{}, ErrInvalidToken
	}
	role := payload.Role
	if role == "" {
		role = models.RoleMember
	}

	if p == nil {
		if reg == nil {
			return Redemption{}, fmt.Errorf("%w: registration details required", ErrInvalidToken)
		}
		principal, err := inv.provider.Register(ctx, reg.Email, reg.Password, identity.Metadata{
			"name":        reg.Name,
			"role":        role,
			"workspaceId": payload.WorkspaceID,
		})
		if err != nil {
			return Redemption{}, err
		}
		p = &principal
	}

	existing, err := inv.store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": payload.WorkspaceID, "authUserId": p.ID},
	})
	if err != nil {
		return Redemption{}, fmt.Errorf("redeem: membership check: %w", err)
	}
	if len(existing) > 0 {
		m := models.MemberFromDoc(existing[0])
		return Redemption{Principal: *p, Member: m}, nil
	}

	name := p.Name
	if name == "" {
		name = p.Email
	}
	if name == "" {
		name = "Member"
	}
	avatar := p.Avatar
	if avatar == "" {
		avatar = FallbackAvatar(name, p.Email)
	}

	m := models.Member{
		OwnerID:     payload.WorkspaceID,
		AuthUserID:  p.ID,
		Email:       p.Email,
		Name:        name,
		Role:        role,
		DisplayRole: role,
		Status:      models.StatusActive,
		JoinedAt:    inv.now(),
		Avatar:      avatar,
	}
	doc, err := inv.store.Create(ctx, docstore.Members, m.Data())
	if err != nil {
		return Redemption{}, fmt.Errorf("redeem: create membership: %w", err)
	}
	m.ID = doc.ID
	m.CreatedAt = doc.CreatedAt

	inv.log.Info("workspace joined",
		zap.String("workspace_id", payload.WorkspaceID),
		zap.String("member_id", m.ID),
		zap.String("auth_user_id", p.ID))
	return Redemption{Principal: *p, Member: m}, nil
}

// pickPending returns the newest membership row that has not been redeemed
// yet (no authUserId).
func pickPending(docs []docstore.Document) (models.Member, bool) {
	var pending []models.Member
	for _, d := range docs {
		m := models.MemberFromDoc(d)
		if m.AuthUserID == "" {
			pending = append(pending, m)
		}
	}
	return models.Newest(pending)
}
