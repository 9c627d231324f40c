package membership

import (
	"context"
	"errors"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

// ErrNotMember is returned when a principal tries to switch to a workspace
// it holds no membership in.
var ErrNotMember = errors.New("membership: not a member of that workspace")

// Memberships returns the principal's memberships deduplicated by
// workspace, keeping the newest row per workspace.
func (r *Resolver) Memberships(ctx context.Context, principalID string) ([]models.Member, error) {
	docs, err := r.store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"authUserId": principalID},
		Sort:    "created_at",
		Order:   "desc",
	})
	if err != nil {
		return nil, err
	}

	byWorkspace := make(map[string]models.Member)
	var order []string
	for _, d := range docs {
		m := models.MemberFromDoc(d)
		if m.OwnerID == "" {
			continue
		}
		cur, seen := byWorkspace[m.OwnerID]
		if !seen {
			byWorkspace[m.OwnerID] = m
			order = append(order, m.OwnerID)
			continue
		}
		if picked, ok := models.Newest([]models.Member{cur, m}); ok {
			byWorkspace[m.OwnerID] = picked
		}
	}

	out := make([]models.Member, 0, len(order))
	for _, id := range order {
		out = append(out, byWorkspace[id])
	}
	return out, nil
}

// Switch validates that targetWorkspaceID is in the principal's membership
// set and returns the matching membership. The caller updates its
// client-local active-workspace pointer from the result; no server state
// changes here.
func (r *Resolver) Switch(ctx context.Context, principalID, targetWorkspaceID string) (models.Member, error) {
	memberships, err := r.Memberships(ctx, principalID)
	if err != nil {
		return models.Member{}, err
	}
	for _, m := range memberships {
		if m.OwnerID == targetWorkspaceID {
			return m, nil
		}
	}
	return models.Member{}, ErrNotMember
}

// Verify returns the principal's membership in the given workspace.
// Handlers call this to check the session's active-workspace pointer
// before trusting it. The principal's own bootstrap workspace verifies
// even without a row, as an implicit Admin membership.
func (r *Resolver) Verify(ctx context.Context, principalID, workspaceID string) (models.Member, error) {
	m, err := r.Switch(ctx, principalID, workspaceID)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, ErrNotMember) && workspaceID == principalID {
		return models.Member{
			OwnerID:    principalID,
			AuthUserID: principalID,
			Role:       models.RoleAdmin,
			Status:     models.StatusActive,
		}, nil
	}
	return models.Member{}, err
}
