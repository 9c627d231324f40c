// Package invitetoken encodes and decodes the portable capability strings
// embedded in /accept-invite/:token and /join/:token links.
//
// A token is JSON, base64-encoded, then percent-escaped for URL embedding.
// It carries no signature and no expiry: possession of the string is the
// only proof, so callers must validate the payload shape before trusting
// it and must treat the trust boundary as "whoever has the link."
package invitetoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"time"
)

// ErrDecode is returned for any malformed token: bad percent escaping,
// an invalid base64 alphabet, or invalid JSON. Callers surface it as
// "invalid or expired link."
var ErrDecode = errors.New("invitetoken: malformed token")

// Payload is the structural content of a token.
//
// Accept-invite tokens carry Email (and usually Name); join tokens carry
// only WorkspaceID and Role. WorkspaceID is required in both variants.
type Payload struct {
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	WorkspaceID string `json:"workspaceId"`
	IssuedAt    string `json:"issuedAt,omitempty"`
}

// New builds a payload stamped with the current time.
func New(email, name, role, workspaceID string) Payload {
	return Payload{
		Email:       email,
		Name:        name,
		Role:        role,
		WorkspaceID: workspaceID,
		IssuedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// Encode serializes the payload into a URL-safe opaque string.
// Decode(Encode(p)) == p for any payload.
func Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(raw)), nil
}

// Decode reverses Encode. Every failure mode collapses to ErrDecode; the
// caller never sees which stage rejected the token.
func Decode(token string) (Payload, error) {
	unescaped, err := url.QueryUnescape(token)
	if err != nil {
		return Payload{}, ErrDecode
	}
	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return Payload{}, ErrDecode
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, ErrDecode
	}
	return p, nil
}
