package docstore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller implements Subscriber by periodically re-listing the collection
// and emitting documents created since the previous pass. It mirrors the
// refetch/interval reactivity pattern of the app's chat and notification
// feeds, kept behind the store adapter so a push transport can replace it
// without touching consumers.
type Poller struct {
	store    Store
	interval time.Duration
	log      *zap.Logger
}

// NewPoller builds a Poller on the given store. A non-positive interval
// defaults to two seconds.
func NewPoller(store Store, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{store: store, interval: interval, log: logger}
}

// Subscribe starts polling the collection. Each tick lists documents
// matching filters and emits those newer than the high-water mark.
// List failures are logged and skipped; the next tick retries.
func (p *Poller) Subscribe(ctx context.Context, collection string, filters map[string]any) (<-chan Event, error) {
	// Establish the starting high-water mark so subscribers only see
	// documents created after they subscribed.
	mark := time.Now().UTC()

	ch := make(chan Event)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			docs, err := p.store.List(ctx, collection, Query{
				Filters: filters,
				Sort:    "created_at",
				Order:   "asc",
			})
			if err != nil {
				p.log.Warn("poll list failed",
					zap.String("collection", collection),
					zap.Error(err))
				continue
			}

			for _, d := range docs {
				if !d.CreatedAt.After(mark) {
					continue
				}
				mark = d.CreatedAt
				select {
				case ch <- Event{Collection: collection, Doc: d}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
