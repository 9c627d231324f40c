package blob_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/hiveflow/hiveflow/internal/app/store/blob"
)

func TestPutOpenRemove(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	key, size, err := store.Put(ctx, "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if size != 5 {
		t.Errorf("size: got %d, want 5", size)
	}
	if !strings.HasPrefix(key, "uploads/") || !strings.HasSuffix(key, ".txt") {
		t.Errorf("unexpected key shape: %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("content: got %q", data)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Error("expected open after remove to fail")
	}
}

func TestPut_DistinctKeys(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	k1, _, err := store.Put(ctx, "a.txt", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	k2, _, err := store.Put(ctx, "a.txt", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if k1 == k2 {
		t.Error("same filename must map to distinct keys")
	}
}

func TestOpen_EscapingKeyRejected(t *testing.T) {
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Error("expected traversal key to be rejected")
	}
}
