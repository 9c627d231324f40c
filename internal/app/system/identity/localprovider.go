package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

// LocalProvider keeps accounts in the auth_users collection with bcrypt
// password hashes. It is the default Provider when no external identity
// service is configured.
type LocalProvider struct {
	store docstore.Store
	cost  int
	log   *zap.Logger
}

// NewLocalProvider builds a provider over the given store.
func NewLocalProvider(store docstore.Store, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{store: store, cost: bcrypt.DefaultCost, log: logger}
}

func (p *LocalProvider) Register(ctx context.Context, email, password string, meta Metadata) (Principal, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Principal{}, fmt.Errorf("%w: email is required", ErrAccountCreation)
	}
	if len(password) < 6 {
		return Principal{}, fmt.Errorf("%w: password must be at least 6 characters", ErrAccountCreation)
	}

	// Duplicate check first. The store has no unique indexes on data
	// fields, so a race can still slip a duplicate through; login always
	// picks the oldest account, which keeps the winner stable.
	existing, err := p.store.List(ctx, docstore.AuthUsers, docstore.Query{
		Filters: map[string]any{"email": email},
		Limit:   1,
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrAccountCreation, err)
	}
	if len(existing) > 0 {
		return Principal{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrAccountCreation, err)
	}

	data := map[string]any{
		"email":        email,
		"passwordHash": string(hash),
		"name":         meta["name"],
		"avatar":       meta["avatar"],
	}
	for k, v := range meta {
		if k == "name" || k == "avatar" {
			continue
		}
		data["meta_"+k] = v
	}

	doc, err := p.store.Create(ctx, docstore.AuthUsers, data)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrAccountCreation, err)
	}

	p.log.Info("account registered", zap.String("auth_user_id", doc.ID))
	return principalFromDoc(doc), nil
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (Principal, error) {
	email = normalizeEmail(email)
	docs, err := p.store.List(ctx, docstore.AuthUsers, docstore.Query{
		Filters: map[string]any{"email": email},
		Sort:    "created_at",
		Order:   "asc",
		Limit:   1,
	})
	if err != nil {
		return Principal{}, err
	}
	if len(docs) == 0 {
		return Principal{}, ErrInvalidCredentials
	}

	hash, _ := docs[0].Data["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return principalFromDoc(docs[0]), nil
}

func (p *LocalProvider) GetByEmail(ctx context.Context, email string) (Principal, error) {
	docs, err := p.store.List(ctx, docstore.AuthUsers, docstore.Query{
		Filters: map[string]any{"email": normalizeEmail(email)},
		Sort:    "created_at",
		Order:   "asc",
		Limit:   1,
	})
	if err != nil {
		return Principal{}, err
	}
	if len(docs) == 0 {
		return Principal{}, ErrInvalidCredentials
	}
	return principalFromDoc(docs[0]), nil
}

func principalFromDoc(d docstore.Document) Principal {
	name, _ := d.Data["name"].(string)
	email, _ := d.Data["email"].(string)
	avatar, _ := d.Data["avatar"].(string)
	return Principal{ID: d.ID, Email: email, Name: name, Avatar: avatar}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAccountCreation reports whether err belongs to the registration
// failure family (including duplicate email).
func IsAccountCreation(err error) bool {
	return errors.Is(err, ErrAccountCreation) || errors.Is(err, ErrEmailTaken)
}
