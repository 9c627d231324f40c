package oauthstate_test

import (
	"context"
	"testing"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/store/oauthstate"
)

func TestIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	store := oauthstate.New(docstore.NewMemory())

	state, err := store.Issue(ctx, "/dashboard")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if state == "" {
		t.Fatal("expected non-empty state")
	}

	returnURL, valid, err := store.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("expected state to validate")
	}
	if returnURL != "/dashboard" {
		t.Errorf("returnURL: got %q, want %q", returnURL, "/dashboard")
	}
}

func TestValidate_OneTimeUse(t *testing.T) {
	ctx := context.Background()
	store := oauthstate.New(docstore.NewMemory())

	state, err := store.Issue(ctx, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, valid, _ := store.Validate(ctx, state); !valid {
		t.Fatal("first validation should succeed")
	}
	if _, valid, _ := store.Validate(ctx, state); valid {
		t.Error("second validation should fail (one-time use)")
	}
}

func TestValidate_UnknownState(t *testing.T) {
	store := oauthstate.New(docstore.NewMemory())
	if _, valid, _ := store.Validate(context.Background(), "never-issued"); valid {
		t.Error("unknown state should not validate")
	}
}
