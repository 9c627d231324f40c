package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used as the dev backend and in tests.
// Documents are deep-copied on the way in and out so callers can't mutate
// shared state.
type Memory struct {
	mu   sync.RWMutex
	cols map[string][]Document

	// failing simulates a backend outage for tests. When set, every call
	// returns ErrUnavailable.
	failing bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[string][]Document)}
}

// SetFailing toggles outage simulation.
func (m *Memory) SetFailing(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = v
}

func (m *Memory) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing {
		return nil, ErrUnavailable
	}

	var out []Document
	for _, d := range m.cols[collection] {
		if matches(d, q.Filters) {
			out = append(out, copyDoc(d))
		}
	}

	if q.Sort != "" {
		desc := q.Order != "asc"
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return lessBy(out[j], out[i], q.Sort)
			}
			return lessBy(out[i], out[j], q.Sort)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, collection string, data map[string]any) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return Document{}, ErrUnavailable
	}

	doc := Document{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Data:      copyData(data),
	}
	m.cols[collection] = append(m.cols[collection], doc)
	return copyDoc(doc), nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}

	docs := m.cols[collection]
	for i := range docs {
		if docs[i].ID == id {
			for k, v := range patch {
				docs[i].Data[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}

	docs := m.cols[collection]
	for i := range docs {
		if docs[i].ID == id {
			m.cols[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Count is a test convenience: number of documents matching the filters.
func (m *Memory) Count(collection string, filters map[string]any) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.cols[collection] {
		if matches(d, filters) {
			n++
		}
	}
	return n
}

func matches(d Document, filters map[string]any) bool {
	for k, want := range filters {
		if d.Data[k] != want {
			return false
		}
	}
	return true
}

// lessBy orders by a data field (string comparison for strings, otherwise
// falls back to created_at). "created_at" sorts by the store timestamp.
func lessBy(a, b Document, field string) bool {
	if field == "created_at" {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	av, aok := a.Data[field].(string)
	bv, bok := b.Data[field].(string)
	if aok && bok {
		if av != bv {
			return av < bv
		}
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func copyDoc(d Document) Document {
	return Document{ID: d.ID, CreatedAt: d.CreatedAt, Data: copyData(d.Data)}
}

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
