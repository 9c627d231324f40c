package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryListFilterSortLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		if _, err := m.Create(ctx, Messages, map[string]any{"ownerId": "W1", "body": body}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := m.Create(ctx, Messages, map[string]any{"ownerId": "W2", "body": "elsewhere"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.List(ctx, Messages, Query{
		Filters: map[string]any{"ownerId": "W1"},
		Sort:    "created_at",
		Order:   "desc",
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit: got %d docs, want 2", len(got))
	}
	if got[0].Data["body"] != "third" {
		t.Errorf("desc sort: newest first, got %v", got[0].Data["body"])
	}
}

func TestMemoryListDescendingKeepsTieOrder(t *testing.T) {
	m := NewMemory()
	// Equal sort keys and equal timestamps: a descending sort must keep
	// insertion order among the ties.
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.cols[Messages] = []Document{
		{ID: "a", CreatedAt: at, Data: map[string]any{"rank": "1"}},
		{ID: "b", CreatedAt: at, Data: map[string]any{"rank": "2"}},
		{ID: "c", CreatedAt: at, Data: map[string]any{"rank": "2"}},
		{ID: "d", CreatedAt: at, Data: map[string]any{"rank": "2"}},
	}

	got, err := m.List(context.Background(), Messages, Query{Sort: "rank", Order: "desc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"b", "c", "d", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %q, want %q (full order %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestMemoryCopiesDocumentsOut(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	doc, err := m.Create(ctx, Members, map[string]any{"name": "Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating the returned document must not leak into the store.
	doc.Data["name"] = "Mallory"

	got, err := m.List(ctx, Members, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got[0].Data["name"] != "Ana" {
		t.Errorf("store was mutated through a returned doc: %v", got[0].Data["name"])
	}
}

func TestMemoryUpdateAndDeleteMissing(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Update(ctx, Members, "missing", map[string]any{"x": 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: got %v, want ErrNotFound", err)
	}
	if err := m.Delete(ctx, Members, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing: got %v, want ErrNotFound", err)
	}
}

func TestMemorySetFailing(t *testing.T) {
	m := NewMemory()
	m.SetFailing(true)

	if _, err := m.List(context.Background(), Members, Query{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("List while failing: got %v, want ErrUnavailable", err)
	}
	if _, err := m.Create(context.Background(), Members, nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create while failing: got %v, want ErrUnavailable", err)
	}
}

func TestPollerDeliversNewDocuments(t *testing.T) {
	m := NewMemory()
	p := NewPoller(m, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pre-existing documents are high-water, not replayed.
	if _, err := m.Create(ctx, Messages, map[string]any{"ownerId": "W1", "body": "old"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	events, err := p.Subscribe(ctx, Messages, map[string]any{"ownerId": "W1"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := m.Create(ctx, Messages, map[string]any{"ownerId": "W1", "body": "new"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(ctx, Messages, map[string]any{"ownerId": "W2", "body": "filtered out"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Doc.Data["body"] != "new" {
			t.Errorf("event body: got %v, want new", ev.Doc.Data["body"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	cancel()
	// The channel closes once the subscription context ends.
	select {
	case _, open := <-events:
		if open {
			// A buffered event may still arrive; drain one more.
			if _, open = <-events; open {
				t.Error("expected channel to close after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
