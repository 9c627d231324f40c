// Package mailer sends transactional email through the external mail API.
// Sending is fire-and-forget from the caller's point of view: failures are
// logged and reported, but never roll back the mutation that triggered the
// email — a human can resend the link.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier is the outbound email surface consumed by features.
type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// Client posts messages to the hosted mail API. A Client with an empty
// config key is "disabled": Send logs and returns ErrNotConfigured so
// callers can warn without treating it as an outage.
type Client struct {
	baseURL   string
	configKey string
	http      *http.Client
	log       *zap.Logger
}

// ErrNotConfigured means no mail API key is set; email is skipped.
var ErrNotConfigured = fmt.Errorf("mailer: config key not set")

// NewClient builds a mail API client.
func NewClient(baseURL, configKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		configKey: configKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       logger,
	}
}

// apiRequest is the mail API's wire format.
type apiRequest struct {
	RecipientList []string `json:"recipient_list"`
	Subject       string   `json:"subject"`
	Content       string   `json:"content"`
	IsHTML        bool     `json:"is_html"`
}

func (c *Client) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if c.configKey == "" {
		c.log.Warn("mail not sent: mailer config key not set",
			zap.Strings("recipients", recipients),
			zap.String("subject", subject))
		return ErrNotConfigured
	}

	body, err := json.Marshal(apiRequest{
		RecipientList: recipients,
		Subject:       subject,
		Content:       htmlBody,
		IsHTML:        true,
	})
	if err != nil {
		return fmt.Errorf("mailer: encode request: %w", err)
	}

	url := c.baseURL + "/api/send-mail/" + c.configKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailer: send failed: status %d: %s", resp.StatusCode, snippet)
	}

	c.log.Info("mail sent",
		zap.Strings("recipients", recipients),
		zap.String("subject", subject))
	return nil
}
