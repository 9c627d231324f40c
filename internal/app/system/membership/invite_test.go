package membership

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/invitetoken"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

type fakeNotifier struct {
	sent []string
	fail bool
}

func (f *fakeNotifier) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if f.fail {
		return fmt.Errorf("smtp said no")
	}
	f.sent = append(f.sent, recipients...)
	return nil
}

func newTestInviter(t *testing.T) (*Inviter, *docstore.Memory, *fakeNotifier) {
	t.Helper()
	store := docstore.NewMemory()
	provider := identity.NewLocalProvider(store, zap.NewNop())
	notifier := &fakeNotifier{}
	inv := NewInviter(store, provider, notifier, "https://hiveflow.app", zap.NewNop(),
		WithClock(func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }))
	return inv, store, notifier
}

func TestIssueCreatesPendingMembershipAndToken(t *testing.T) {
	inv, store, notifier := newTestInviter(t)

	res, err := inv.Issue(context.Background(), IssueParams{
		WorkspaceID: "W1",
		Role:        models.RoleMember,
		Name:        "Ana",
		Email:       "ana@x.com",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if res.Member.OwnerID != "W1" || res.Member.AuthUserID != "" {
		t.Errorf("pending member wrong: %+v", res.Member)
	}
	if !res.EmailSent || len(notifier.sent) != 1 || notifier.sent[0] != "ana@x.com" {
		t.Errorf("email not sent to invitee: sent=%v", notifier.sent)
	}

	payload, err := invitetoken.Decode(res.Token)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if payload.Email != "ana@x.com" || payload.WorkspaceID != "W1" || payload.Role != models.RoleMember {
		t.Errorf("token payload wrong: %+v", payload)
	}
	if payload.IssuedAt == "" {
		t.Error("token payload missing issuedAt")
	}

	if n := store.Count(docstore.Members, map[string]any{"ownerId": "W1"}); n != 1 {
		t.Errorf("member rows: got %d, want 1", n)
	}
}

func TestIssueKeepsMembershipWhenEmailFails(t *testing.T) {
	inv, store, notifier := newTestInviter(t)
	notifier.fail = true

	res, err := inv.Issue(context.Background(), IssueParams{
		WorkspaceID: "W1",
		Email:       "ana@x.com",
	})
	if err != nil {
		t.Fatalf("Issue must not fail on email error: %v", err)
	}
	if res.EmailSent {
		t.Error("EmailSent should be false")
	}
	if n := store.Count(docstore.Members, map[string]any{"email": "ana@x.com"}); n != 1 {
		t.Errorf("membership rolled back on email failure: rows=%d", n)
	}
}

func TestIssueDuplicatesAreAdditive(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := inv.Issue(ctx, IssueParams{WorkspaceID: "W1", Email: "dup@x.com"}); err != nil {
			t.Fatalf("Issue #%d: %v", i+1, err)
		}
	}
	if n := store.Count(docstore.Members, map[string]any{"email": "dup@x.com"}); n != 2 {
		t.Errorf("duplicate invites: got %d rows, want 2", n)
	}
}

func TestInviteThenAccept(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()

	issued, err := inv.Issue(ctx, IssueParams{
		WorkspaceID: "W1",
		Role:        models.RoleMember,
		Name:        "Ana",
		Email:       "ana@x.com",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	red, err := inv.RedeemAccept(ctx, issued.Token, "secret1")
	if err != nil {
		t.Fatalf("RedeemAccept: %v", err)
	}
	if red.Principal.ID == "" || red.Principal.Email != "ana@x.com" {
		t.Errorf("principal wrong: %+v", red.Principal)
	}
	if red.Member.OwnerID != "W1" || red.Member.AuthUserID != red.Principal.ID {
		t.Errorf("membership not finalized: %+v", red.Member)
	}

	// The stored row must reflect the finalization.
	docs, err := store.List(ctx, docstore.Members, docstore.Query{
		Filters: map[string]any{"ownerId": "W1", "email": "ana@x.com"},
	})
	if err != nil || len(docs) != 1 {
		t.Fatalf("membership rows: %v, err=%v", docs, err)
	}
	m := models.MemberFromDoc(docs[0])
	if m.AuthUserID != red.Principal.ID || m.Status != models.StatusActive || m.JoinedAt.IsZero() {
		t.Errorf("stored membership wrong: %+v", m)
	}
}

func TestRedeemAcceptUnknownInvite(t *testing.T) {
	inv, _, _ := newTestInviter(t)

	token, err := invitetoken.Encode(invitetoken.New("ghost@x.com", "Ghost", models.RoleMember, "W1"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := inv.RedeemAccept(context.Background(), token, "secret1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestRedeemAcceptMissingFields(t *testing.T) {
	inv, _, _ := newTestInviter(t)

	// Join-style token (no email) is not redeemable via accept-invite.
	token, err := invitetoken.Encode(invitetoken.Payload{WorkspaceID: "W1", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := inv.RedeemAccept(context.Background(), token, "secret1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestRedeemJoinIdempotent(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()

	token, err := invitetoken.Encode(invitetoken.Payload{WorkspaceID: "W1", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p := &identity.Principal{ID: "U7", Email: "u7@x.com", Name: "Seven"}

	first, err := inv.RedeemJoin(ctx, token, p, nil)
	if err != nil {
		t.Fatalf("RedeemJoin: %v", err)
	}
	second, err := inv.RedeemJoin(ctx, token, p, nil)
	if err != nil {
		t.Fatalf("RedeemJoin (second): %v", err)
	}
	if first.Member.ID != second.Member.ID {
		t.Errorf("second redemption created a new row: %s vs %s", second.Member.ID, first.Member.ID)
	}
	if n := store.Count(docstore.Members, map[string]any{"ownerId": "W1", "authUserId": "U7"}); n != 1 {
		t.Errorf("member rows: got %d, want exactly 1", n)
	}
}

func TestRedeemJoinRegistersVisitor(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()

	token, err := invitetoken.Encode(invitetoken.Payload{WorkspaceID: "W1", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	red, err := inv.RedeemJoin(ctx, token, nil, &JoinRegistration{
		Name:     "Visitor",
		Email:    "visitor@x.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("RedeemJoin: %v", err)
	}
	if red.Principal.ID == "" {
		t.Fatal("no principal created")
	}
	if red.Member.OwnerID != "W1" || red.Member.AuthUserID != red.Principal.ID {
		t.Errorf("membership wrong: %+v", red.Member)
	}
	if n := store.Count(docstore.AuthUsers, map[string]any{"email": "visitor@x.com"}); n != 1 {
		t.Errorf("auth user rows: got %d, want 1", n)
	}
}

func TestRedeemMalformedTokenWritesNothing(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()

	if _, err := inv.RedeemJoin(ctx, "not-base64!!", &identity.Principal{ID: "U1"}, nil); !errors.Is(err, invitetoken.ErrDecode) {
		t.Errorf("join: got %v, want ErrDecode", err)
	}
	if _, err := inv.RedeemAccept(ctx, "not-base64!!", "secret1"); !errors.Is(err, invitetoken.ErrDecode) {
		t.Errorf("accept: got %v, want ErrDecode", err)
	}
	if n := store.Count(docstore.Members, nil); n != 0 {
		t.Errorf("store writes happened for malformed token: %d rows", n)
	}
	if n := store.Count(docstore.AuthUsers, nil); n != 0 {
		t.Errorf("accounts created for malformed token: %d rows", n)
	}
}

func TestRedeemAcceptDuplicateEmailSurfacesAccountError(t *testing.T) {
	inv, store, _ := newTestInviter(t)
	ctx := context.Background()
	provider := identity.NewLocalProvider(store, zap.NewNop())

	if _, err := provider.Register(ctx, "taken@x.com", "secret1", nil); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	issued, err := inv.Issue(ctx, IssueParams{WorkspaceID: "W1", Email: "taken@x.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = inv.RedeemAccept(ctx, issued.Token, "secret1")
	if !errors.Is(err, identity.ErrEmailTaken) {
		t.Errorf("got %v, want ErrEmailTaken", err)
	}
}
