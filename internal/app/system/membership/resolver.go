// Package membership owns workspace identity: mapping a principal to its
// effective (workspace, role) pair, minting and redeeming invite tokens,
// and reconciling concurrent membership creation.
//
// Workspace identity is derived, never stored: it is either a membership's
// ownerId or, absent any membership, the principal's own id (the bootstrap
// workspace). Every principal therefore resolves to exactly one
// (workspaceID, role) pair at any time.
package membership

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// avatarBaseURL generates a deterministic fallback avatar keyed by the
// display name or email.
const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// Profile is a device-local override for display fields, cached client-side
// (in the session cookie) and never authoritative.
type Profile struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

// Identity is the resolved workspace identity of a principal. Member is nil
// for a bootstrap identity: the principal owns a brand-new workspace that
// has not been materialized yet.
type Identity struct {
	WorkspaceID string
	Role        string
	DisplayName string
	Avatar      string
	Member      *models.Member
}

// Bootstrap reports whether this identity is implicit (no membership row).
func (id *Identity) Bootstrap() bool {
	return id.Member == nil
}

// Resolver computes workspace identities from the members collection.
// Resolution is a pure read: it never writes, so repeated calls over an
// unchanged store return the same answer.
type Resolver struct {
	store docstore.Store
	log   *zap.Logger
}

// NewResolver builds a Resolver over the given store.
func NewResolver(store docstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, log: logger}
}

// Resolve maps a principal to its workspace identity. Nil principal yields
// nil. The chain is ordered and first-match-wins:
//
//  1. memberships with authUserId == principal.ID, newest first
//  2. memberships with email == principal.Email, newest first (an admin
//     invited this email before the principal had an account)
//  3. bootstrap: workspaceID = principal.ID, role Admin — computed, not
//     written; materialized later by EnsureMembership.
//
// A store failure at any step degrades to the next rule: resolution never
// fails outright while a later rule can still answer.
func (r *Resolver) Resolve(ctx context.Context, p *identity.Principal, override *Profile) *Identity {
	if p == nil {
		return nil
	}

	member, ok := r.newestMatch(ctx, "authUserId", p.ID)
	if !ok && p.Email != "" {
		member, ok = r.newestMatch(ctx, "email", p.Email)
	}

	if !ok {
		name, avatar := displayFields(nil, p, override)
		return &Identity{
			WorkspaceID: p.ID,
			Role:        models.RoleAdmin,
			DisplayName: name,
			Avatar:      avatar,
		}
	}

	role := member.Role
	if role == "" {
		role = models.RoleMember
	}
	workspaceID := member.OwnerID
	if workspaceID == "" {
		workspaceID = p.ID
	}
	name, avatar := displayFields(&member, p, override)

	m := member
	return &Identity{
		WorkspaceID: workspaceID,
		Role:        role,
		DisplayName: name,
		Avatar:      avatar,
		Member:      &m,
	}
}

// EnsureMembership materializes a bootstrap identity as a concrete
// self-owned Admin membership. This is the single place lazy creation
// happens; callers invoke it before the principal's first workspace write.
// Linked identities are returned unchanged. The existing-row check makes
// concurrent calls converge on one row rather than racing into duplicates.
func (r *Resolver) EnsureMembership(ctx context.Context, p *identity.Principal, ident *Identity) (models.Member, error) {
	if ident.Member != nil {
		return *ident.Member, nil
	}

	docs, err := r.store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": p.ID, "authUserId": p.ID},
		Limit:   1,
	})
	if err != nil {
		return models.Member{}, err
	}
	if len(docs) > 0 {
		return models.MemberFromDoc(docs[0]), nil
	}

	m := models.Member{
		OwnerID:     p.ID,
		AuthUserID:  p.ID,
		Email:       p.Email,
		Name:        ident.DisplayName,
		Role:        models.RoleAdmin,
		DisplayRole: models.RoleAdmin,
		Status:      models.StatusActive,
		JoinedAt:    time.Now().UTC(),
		Avatar:      ident.Avatar,
	}
	doc, err := r.store.Create(ctx, docstore.Members, m.Data())
	if err != nil {
		return models.Member{}, err
	}
	m.ID = doc.ID
	m.CreatedAt = doc.CreatedAt
	r.log.Info("bootstrap workspace materialized",
		zap.String("workspace_id", p.ID),
		zap.String("member_id", m.ID))
	return m, nil
}

// newestMatch lists members by one filter field and applies the
// newest-first rule. Store errors are logged and treated as "no match."
func (r *Resolver) newestMatch(ctx context.Context, field, value string) (models.Member, bool) {
	docs, err := r.store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{field: value},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		r.log.Warn("membership lookup failed, falling through",
			zap.String("field", field),
			zap.Error(err))
		return models.Member{}, false
	}

	members := make([]models.Member, 0, len(docs))
	for _, d := range docs {
		members = append(members, models.MemberFromDoc(d))
	}
	return models.Newest(members)
}

// displayFields resolves name and avatar: profile override, then the
// membership record, then the raw principal, then generated fallbacks.
func displayFields(m *models.Member, p *identity.Principal, override *Profile) (name, avatar string) {
	if override != nil {
		name = override.Name
		avatar = override.Avatar
	}
	if name == "" && m != nil {
		name = m.Name
	}
	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = p.Email
	}
	if name == "" {
		name = "Member"
	}

	if avatar == "" && m != nil {
		avatar = m.Avatar
	}
	if avatar == "" {
		avatar = p.Avatar
	}
	if avatar == "" {
		avatar = FallbackAvatar(name, p.Email)
	}
	return name, avatar
}

// FallbackAvatar returns the generated avatar URL for a name/email seed.
func FallbackAvatar(name, email string) string {
	seed := name
	if seed == "" {
		seed = email
	}
	if seed == "" {
		seed = "Member"
	}
	return avatarBaseURL + url.QueryEscape(seed)
}
