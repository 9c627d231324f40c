// internal/domain/models/content.go
package models

import (
	"time"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

// Announcement is a workspace-scoped post shown on the dashboard. Body is
// sanitized HTML.
type Announcement struct {
	ID        string
	OwnerID   string
	AuthorID  string
	Title     string
	Body      string
	Pinned    bool
	Public    bool
	CreatedAt time.Time
}

func AnnouncementFromDoc(d docstore.Document) Announcement {
	return Announcement{
		ID:        d.ID,
		OwnerID:   str(d.Data["ownerId"]),
		AuthorID:  str(d.Data["authorId"]),
		Title:     str(d.Data["title"]),
		Body:      str(d.Data["body"]),
		Pinned:    boolean(d.Data["pinned"]),
		Public:    boolean(d.Data["public"]),
		CreatedAt: d.CreatedAt,
	}
}

func (a Announcement) Data() map[string]any {
	return map[string]any{
		"ownerId":  a.OwnerID,
		"authorId": a.AuthorID,
		"title":    a.Title,
		"body":     a.Body,
		"pinned":   a.Pinned,
		"public":   a.Public,
	}
}

// Event is a scheduled community event.
type Event struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedAt   time.Time
}

func EventFromDoc(d docstore.Document) Event {
	e := Event{
		ID:          d.ID,
		OwnerID:     str(d.Data["ownerId"]),
		Title:       str(d.Data["title"]),
		Description: str(d.Data["description"]),
		Location:    str(d.Data["location"]),
		CreatedAt:   d.CreatedAt,
	}
	if ts, err := time.Parse(time.RFC3339, str(d.Data["startsAt"])); err == nil {
		e.StartsAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, str(d.Data["endsAt"])); err == nil {
		e.EndsAt = ts
	}
	return e
}

func (e Event) Data() map[string]any {
	data := map[string]any{
		"ownerId":     e.OwnerID,
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"startsAt":    "",
		"endsAt":      "",
	}
	if !e.StartsAt.IsZero() {
		data["startsAt"] = e.StartsAt.UTC().Format(time.RFC3339)
	}
	if !e.EndsAt.IsZero() {
		data["endsAt"] = e.EndsAt.UTC().Format(time.RFC3339)
	}
	return data
}

// Comment is a member's comment on an event.
type Comment struct {
	ID        string
	OwnerID   string
	EventID   string
	AuthorID  string
	Author    string
	Text      string
	CreatedAt time.Time
}

func CommentFromDoc(d docstore.Document) Comment {
	return Comment{
		ID:        d.ID,
		OwnerID:   str(d.Data["ownerId"]),
		EventID:   str(d.Data["eventId"]),
		AuthorID:  str(d.Data["authorId"]),
		Author:    str(d.Data["author"]),
		Text:      str(d.Data["text"]),
		CreatedAt: d.CreatedAt,
	}
}

func (c Comment) Data() map[string]any {
	return map[string]any{
		"ownerId":  c.OwnerID,
		"eventId":  c.EventID,
		"authorId": c.AuthorID,
		"author":   c.Author,
		"text":     c.Text,
	}
}

// Reaction is one member's reaction of one type on an event. At most one
// row per (event, user, type) should exist.
type Reaction struct {
	ID        string
	OwnerID   string
	EventID   string
	UserID    string
	Type      string
	CreatedAt time.Time
}

func ReactionFromDoc(d docstore.Document) Reaction {
	return Reaction{
		ID:        d.ID,
		OwnerID:   str(d.Data["ownerId"]),
		EventID:   str(d.Data["eventId"]),
		UserID:    str(d.Data["userId"]),
		Type:      str(d.Data["type"]),
		CreatedAt: d.CreatedAt,
	}
}

func (r Reaction) Data() map[string]any {
	return map[string]any{
		"ownerId": r.OwnerID,
		"eventId": r.EventID,
		"userId":  r.UserID,
		"type":    r.Type,
	}
}

// GlobalAnnouncement is an owner broadcast shown to every signed-in user
// across all workspaces.
type GlobalAnnouncement struct {
	ID              string
	Title           string
	Message         string
	Subject         string
	CtaURL          string
	CtaLabel        string
	SentBy          string
	RecipientsCount int64
	CreatedAt       time.Time
}

func GlobalAnnouncementFromDoc(d docstore.Document) GlobalAnnouncement {
	return GlobalAnnouncement{
		ID:              d.ID,
		Title:           str(d.Data["title"]),
		Message:         str(d.Data["message"]),
		Subject:         str(d.Data["subject"]),
		CtaURL:          str(d.Data["ctaUrl"]),
		CtaLabel:        str(d.Data["ctaLabel"]),
		SentBy:          str(d.Data["sentBy"]),
		RecipientsCount: i64(d.Data["recipientsCount"]),
		CreatedAt:       d.CreatedAt,
	}
}

func (g GlobalAnnouncement) Data() map[string]any {
	return map[string]any{
		"title":           g.Title,
		"message":         g.Message,
		"subject":         g.Subject,
		"ctaUrl":          g.CtaURL,
		"ctaLabel":        g.CtaLabel,
		"sentBy":          g.SentBy,
		"recipientsCount": g.RecipientsCount,
	}
}

// Workspace is the per-workspace settings document. The workspace itself
// is implicit in its memberships; this row only exists once someone saves
// a setting such as the community name.
type Workspace struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
}

func WorkspaceFromDoc(d docstore.Document) Workspace {
	return Workspace{
		ID:          d.ID,
		WorkspaceID: str(d.Data["workspaceId"]),
		Name:        str(d.Data["name"]),
		CreatedAt:   d.CreatedAt,
	}
}

func (w Workspace) Data() map[string]any {
	return map[string]any{
		"workspaceId": w.WorkspaceID,
		"name":        w.Name,
	}
}

// Message is a chat message in a workspace channel.
type Message struct {
	ID        string
	OwnerID   string
	AuthorID  string
	Author    string
	Body      string
	CreatedAt time.Time
}

func MessageFromDoc(d docstore.Document) Message {
	return Message{
		ID:        d.ID,
		OwnerID:   str(d.Data["ownerId"]),
		AuthorID:  str(d.Data["authorId"]),
		Author:    str(d.Data["author"]),
		Body:      str(d.Data["body"]),
		CreatedAt: d.CreatedAt,
	}
}

func (m Message) Data() map[string]any {
	return map[string]any{
		"ownerId":  m.OwnerID,
		"authorId": m.AuthorID,
		"author":   m.Author,
		"body":     m.Body,
	}
}

// FileEntry is uploaded-file metadata; bytes live on disk under a
// store-independent key.
type FileEntry struct {
	ID         string
	OwnerID    string
	UploaderID string
	Name       string
	Key        string
	Size       int64
	MimeType   string
	CreatedAt  time.Time
}

func FileEntryFromDoc(d docstore.Document) FileEntry {
	return FileEntry{
		ID:         d.ID,
		OwnerID:    str(d.Data["ownerId"]),
		UploaderID: str(d.Data["uploaderId"]),
		Name:       str(d.Data["name"]),
		Key:        str(d.Data["key"]),
		Size:       i64(d.Data["size"]),
		MimeType:   str(d.Data["mimeType"]),
		CreatedAt:  d.CreatedAt,
	}
}

func (f FileEntry) Data() map[string]any {
	return map[string]any{
		"ownerId":    f.OwnerID,
		"uploaderId": f.UploaderID,
		"name":       f.Name,
		"key":        f.Key,
		"size":       f.Size,
		"mimeType":   f.MimeType,
	}
}

// Notification is a per-user feed item.
type Notification struct {
	ID          string
	OwnerID     string
	RecipientID string
	Kind        string
	Text        string
	Read        bool
	CreatedAt   time.Time
}

func NotificationFromDoc(d docstore.Document) Notification {
	return Notification{
		ID:          d.ID,
		OwnerID:     str(d.Data["ownerId"]),
		RecipientID: str(d.Data["recipientId"]),
		Kind:        str(d.Data["kind"]),
		Text:        str(d.Data["text"]),
		Read:        boolean(d.Data["read"]),
		CreatedAt:   d.CreatedAt,
	}
}

func (n Notification) Data() map[string]any {
	return map[string]any{
		"ownerId":     n.OwnerID,
		"recipientId": n.RecipientID,
		"kind":        n.Kind,
		"text":        n.Text,
		"read":        n.Read,
	}
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

// i64 reads a numeric field that may round-trip as int, int64, int32 or
// float64 depending on the backend codec.
func i64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
