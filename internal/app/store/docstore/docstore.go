// Package docstore is the generic document-store adapter used by every
// feature. Collections hold schemaless documents of the shape
// {id, created_at, data}; filtering is exact-match on data fields.
//
// Two implementations exist: Mongo (production) and Memory (dev/test).
// Both satisfy Store, so features never know which backend they run on.
package docstore

import (
	"context"
	"errors"
	"time"
)

// Collection names used across the app. Features should reference these
// constants instead of raw strings.
const (
	Members             = "members"
	AuthUsers           = "auth_users"
	Events              = "events"
	Announcements       = "announcements"
	GlobalAnnouncements = "global_announcements"
	Comments            = "comments"
	Reactions           = "reactions"
	Files               = "files"
	Messages            = "messages"
	Notifications       = "notifications"
	Workspaces          = "workspaces"
	OAuthStates         = "oauth_states"
)

// ErrUnavailable wraps transient backend faults (network, server down).
// Callers that have a fallback treat it as "no match"; callers that don't
// surface it as a retryable error.
var ErrUnavailable = errors.New("docstore: unavailable")

// ErrNotFound is returned by Update/Delete when the document id does not
// exist in the collection.
var ErrNotFound = errors.New("docstore: not found")

// Document is a single stored record. Data holds the caller-defined fields;
// ID and CreatedAt are assigned by the store.
type Document struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data"`
}

// Query narrows and orders a List call. Filters are ANDed exact matches on
// data fields. Sort is a data field name, or "created_at" for the store
// timestamp. Order is "asc" or "desc" (desc when empty and Sort is set).
// Limit of 0 means no limit.
type Query struct {
	Filters map[string]any
	Sort    string
	Order   string
	Limit   int
}

// Store is the per-collection CRUD surface of the external document store.
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (Document, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// Event is a change notification emitted by a Subscriber.
type Event struct {
	Collection string
	Doc        Document
}

// Subscriber delivers newly created documents matching a filter. The
// transport (poll vs push) is the implementation's concern; consumers only
// see the channel. The channel closes when ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, filters map[string]any) (<-chan Event, error)
}
