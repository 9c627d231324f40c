package invitetoken

import (
	"errors"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []Payload{
		{Email: "ana@x.com", Name: "Ana", Role: "Member", WorkspaceID: "W1", IssuedAt: "2026-01-02T15:04:05Z"},
		{WorkspaceID: "W2", Role: "Admin"},
		{WorkspaceID: "u-123"},
		{Email: "weird+chars@example.com", Name: "Zoë / O'Brien", Role: "Member", WorkspaceID: "W/3=?&"},
	}

	for _, in := range cases {
		token, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", in, err)
		}
		out, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode(Encode(%+v)): %v", in, err)
		}
		if out != in {
			t.Errorf("round-trip mismatch: got %+v, want %+v", out, in)
		}
	}
}

func TestEncodeIsURLSafe(t *testing.T) {
	token, err := Encode(New("a+b@x.com", "A B", "Member", "W1"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, c := range []string{"+", "/", " "} {
		if strings.Contains(token, c) {
			t.Errorf("token contains unescaped %q: %s", c, token)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"not-base64!!",
		"%zz",                 // bad percent escaping
		"aGVsbG8",             // valid base64ish, not JSON
		"e30%",                // truncated escape
		"bm90LWpzb24tYXQtYWxs", // decodes to "not-json-at-all"
		"",
	}
	for _, token := range cases {
		if _, err := Decode(token); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q): got %v, want ErrDecode", token, err)
		}
	}
}

func TestNewStampsIssuedAt(t *testing.T) {
	p := New("a@x.com", "A", "Member", "W1")
	if p.IssuedAt == "" {
		t.Error("New: IssuedAt is empty")
	}
	if p.WorkspaceID != "W1" || p.Role != "Member" {
		t.Errorf("New: unexpected payload %+v", p)
	}
}
