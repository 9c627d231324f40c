package announcements

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/httpjson"
	"github.com/hiveflow/hiveflow/internal/app/system/mailer"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
	"github.com/hiveflow/hiveflow/internal/domain/models"
)

type globalView struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	CtaURL          string `json:"ctaUrl,omitempty"`
	CtaLabel        string `json:"ctaLabel,omitempty"`
	RecipientsCount int64  `json:"recipientsCount,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

type broadcastRequest struct {
	Subject  string `json:"subject"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	CtaURL   string `json:"ctaUrl"`
	CtaLabel string `json:"ctaLabel"`
}

// ServeGlobal returns the latest platform-wide announcement, or null when
// none has been sent. Any signed-in user may read it.
func (h *Handler) ServeGlobal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "latest global announcement")
	defer cancel()

	docs, err := h.Store.List(ctx, docstore.GlobalAnnouncements, docstore.Query{
		Sort:  "created_at",
		Order: "desc",
		Limit: 1,
	})
	if err != nil {
		h.Log.Error("load global announcement failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	if len(docs) == 0 {
		httpjson.Write(w, http.StatusOK, map[string]any{"announcement": nil})
		return
	}

	g := models.GlobalAnnouncementFromDoc(docs[0])
	httpjson.Write(w, http.StatusOK, map[string]any{"announcement": globalView{
		ID:        g.ID,
		Title:     g.Title,
		Message:   g.Message,
		CtaURL:    g.CtaURL,
		CtaLabel:  g.CtaLabel,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}})
}

// HandleBroadcast emails every known member and records the announcement
// so it also shows in-app. Only the platform owner may send; the record
// is written only after the email went out.
func (h *Handler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}
	if h.OwnerEmail == "" || !strings.EqualFold(u.Email, h.OwnerEmail) {
		httpjson.Error(w, http.StatusForbidden, "forbidden", "only the platform owner can broadcast")
		return
	}

	var req broadcastRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Subject == "" || req.Title == "" || req.Message == "" {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "subject, title and message are required")
		return
	}
	if req.CtaLabel == "" {
		req.CtaLabel = "Open HiveFlow"
	}
	if req.CtaURL == "" {
		req.CtaURL = h.BaseURL
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "global broadcast")
	defer cancel()

	docs, err := h.Store.List(ctx, docstore.Members, docstore.Query{})
	if err != nil {
		h.Log.Error("list broadcast recipients failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "unavailable", "try again shortly")
		return
	}
	recipients := recipientEmails(docs)
	if len(recipients) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "no recipients found")
		return
	}

	subject, body := mailer.BuildBroadcastEmail(mailer.BroadcastEmailData{
		Subject:  req.Subject,
		Title:    req.Title,
		Message:  req.Message,
		CtaURL:   req.CtaURL,
		CtaLabel: req.CtaLabel,
	})
	if err := h.Notifier.Send(ctx, recipients, subject, body); err != nil {
		h.Log.Error("global broadcast email failed", zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "mail_failed", "could not send the broadcast email")
		return
	}

	g := models.GlobalAnnouncement{
		Title:           req.Title,
		Message:         req.Message,
		Subject:         req.Subject,
		CtaURL:          req.CtaURL,
		CtaLabel:        req.CtaLabel,
		SentBy:          u.Email,
		RecipientsCount: int64(len(recipients)),
	}
	doc, err := h.Store.Create(ctx, docstore.GlobalAnnouncements, g.Data())
	if err != nil {
		// The email is already out; losing the in-app copy is not worth
		// failing the request over.
		h.Log.Warn("persist global announcement failed", zap.Error(err))
		httpjson.Write(w, http.StatusOK, map[string]any{"recipientsCount": len(recipients)})
		return
	}

	h.Log.Info("global broadcast sent",
		zap.Int("recipients", len(recipients)),
		zap.String("sent_by", u.Email))
	httpjson.Write(w, http.StatusOK, map[string]any{
		"id":              doc.ID,
		"recipientsCount": len(recipients),
	})
}

// recipientEmails dedupes member emails case-insensitively, keeping the
// order of first appearance.
func recipientEmails(docs []docstore.Document) []string {
	seen := make(map[string]bool, len(docs))
	var out []string
	for _, d := range docs {
		addr := strings.ToLower(strings.TrimSpace(models.MemberFromDoc(d).Email))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
