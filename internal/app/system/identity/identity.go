// Package identity is the adapter boundary to the authentication provider.
// HiveFlow does not own authentication; it consumes a Provider that can
// register and verify principals. The built-in provider stores accounts in
// the document store with bcrypt hashes, and a Google verifier covers the
// OAuth sign-in path.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrEmailTaken means registration was rejected because the email
	// already has an account.
	ErrEmailTaken = errors.New("identity: email already registered")
	// ErrInvalidCredentials covers unknown email or wrong password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrAccountCreation wraps any other provider-side registration
	// failure; the provider's message is preserved via %w chains.
	ErrAccountCreation = errors.New("identity: account creation failed")
)

// Principal is the raw identity-provider record: stable opaque id plus the
// profile fields the provider happens to know. Read-only here.
type Principal struct {
	ID     string
	Email  string
	Name   string
	Avatar string
}

// Metadata is free-form account metadata recorded at registration
// (the original stores role and workspaceId hints here).
type Metadata map[string]string

// Provider is the external identity surface consumed by the rest of the
// app. Implementations must be safe for concurrent use.
type Provider interface {
	Register(ctx context.Context, email, password string, meta Metadata) (Principal, error)
	Login(ctx context.Context, email, password string) (Principal, error)
	GetByEmail(ctx context.Context, email string) (Principal, error)
}
