// internal/domain/models/member.go
package models

import (
	"time"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

// Role values used throughout the app. DisplayRole may hold any label an
// admin typed; Role is what authorization compares against.
const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

// Status values for memberships.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Member links a principal (or a still-pending email) to a workspace.
//
// OwnerID is the workspace id. AuthUserID is empty until the invite is
// redeemed; at most one membership per (OwnerID, AuthUserID) pair should
// exist once redeemed, while multiple pending rows per (OwnerID, Email)
// are allowed.
type Member struct {
	ID          string
	OwnerID     string
	AuthUserID  string
	Email       string
	Name        string
	Phone       string
	Role        string
	DisplayRole string
	Status      string
	JoinedAt    time.Time
	Avatar      string

	// WorkspaceName is the community name denormalized onto member rows
	// so a single members read can label the workspace. Written by the
	// workspace-name fan-out, not by Data.
	WorkspaceName string

	// CreatedAt is the store-assigned creation timestamp, used as the
	// newest-first tie-break when JoinedAt is absent.
	CreatedAt time.Time
}

// MemberFromDoc decodes a members-collection document.
func MemberFromDoc(d docstore.Document) Member {
	m := Member{
		ID:          d.ID,
		OwnerID:     str(d.Data["ownerId"]),
		AuthUserID:  str(d.Data["authUserId"]),
		Email:       str(d.Data["email"]),
		Name:        str(d.Data["name"]),
		Phone:       str(d.Data["phone"]),
		Role:        str(d.Data["role"]),
		DisplayRole: str(d.Data["displayRole"]),
		Status:      str(d.Data["status"]),
		Avatar:      str(d.Data["avatar"]),
		CreatedAt:   d.CreatedAt,
	}
	if ts, err := time.Parse(time.RFC3339, str(d.Data["joinedAt"])); err == nil {
		m.JoinedAt = ts
	}
	// Older rows carry the name under communityName.
	m.WorkspaceName = str(d.Data["workspaceName"])
	if m.WorkspaceName == "" {
		m.WorkspaceName = str(d.Data["communityName"])
	}
	return m
}

// Data encodes the member back into document data. JoinedAt is stored as
// RFC 3339 text; a zero JoinedAt stores the empty string (pending rows).
func (m Member) Data() map[string]any {
	joined := ""
	if !m.JoinedAt.IsZero() {
		joined = m.JoinedAt.UTC().Format(time.RFC3339)
	}
	var authUserID any
	if m.AuthUserID != "" {
		authUserID = m.AuthUserID
	}
	return map[string]any{
		"ownerId":     m.OwnerID,
		"authUserId":  authUserID,
		"email":       m.Email,
		"name":        m.Name,
		"phone":       m.Phone,
		"role":        m.Role,
		"displayRole": m.DisplayRole,
		"status":      m.Status,
		"joinedAt":    joined,
		"avatar":      m.Avatar,
	}
}

// Newest returns the member that sorts first under the newest-first rule:
// later JoinedAt wins; rows without JoinedAt fall back to CreatedAt.
func Newest(members []Member) (Member, bool) {
	if len(members) == 0 {
		return Member{}, false
	}
	best := members[0]
	for _, m := range members[1:] {
		if effectiveTime(m).After(effectiveTime(best)) {
			best = m
		}
	}
	return best, true
}

func effectiveTime(m Member) time.Time {
	if !m.JoinedAt.IsZero() {
		return m.JoinedAt
	}
	return m.CreatedAt
}

// str reads a string field tolerantly; documents written by older clients
// may hold nil where we expect text.
func str(v any) string {
	s, _ := v.(string)
	return s
}
