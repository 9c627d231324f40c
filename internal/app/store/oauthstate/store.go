// Package oauthstate persists one-time OAuth2 state tokens for CSRF
// protection during the Google sign-in round trip.
package oauthstate

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

// TTL is how long an issued state token stays redeemable.
const TTL = 10 * time.Minute

// Store manages state tokens in the document store.
type Store struct {
	docs docstore.Store
	now  func() time.Time
}

// New creates a state Store.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs, now: func() time.Time { return time.Now().UTC() }}
}

// Issue generates a random state token and persists it with its expiry.
func (s *Store) Issue(ctx context.Context, returnURL string) (string, error) {
	raw := securecookie.GenerateRandomKey(32)
	if raw == nil {
		return "", fmt.Errorf("oauthstate: random source unavailable")
	}
	state := hex.EncodeToString(raw)
	_, err := s.docs.Create(ctx, docstore.OAuthStates, map[string]any{
		"state":     state,
		"returnUrl": returnURL,
		"expiresAt": s.now().Add(TTL).Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("oauthstate: save: %w", err)
	}
	return state, nil
}

// Validate checks a state token and consumes it. One-time use: a valid
// token is deleted before returning.
func (s *Store) Validate(ctx context.Context, state string) (returnURL string, valid bool, err error) {
	if state == "" {
		return "", false, nil
	}
	docs, err := s.docs.List(ctx, docstore.OAuthStates, docstore.Query{
		Filters: map[string]any{"state": state},
		Limit:   1,
	})
	if err != nil {
		return "", false, fmt.Errorf("oauthstate: lookup: %w", err)
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	doc := docs[0]
	if err := s.docs.Delete(ctx, docstore.OAuthStates, doc.ID); err != nil {
		return "", false, fmt.Errorf("oauthstate: consume: %w", err)
	}
	expires, perr := time.Parse(time.RFC3339, stringField(doc, "expiresAt"))
	if perr != nil || s.now().After(expires) {
		return "", false, nil
	}
	return stringField(doc, "returnUrl"), true, nil
}

func stringField(d docstore.Document, key string) string {
	s, _ := d.Data[key].(string)
	return s
}
