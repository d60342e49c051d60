// Package audit implements ports.AuditLog by appending rows to a
// spreadsheet webhook. It is strictly best-effort: a broken audit
// channel must never abort the user's workflow.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Appender struct {
	webhookURL string
	client     *http.Client
	log        *slog.Logger
}

func NewAppender(webhookURL string, log *slog.Logger) *Appender {
	return &Appender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.With("adapter", "audit"),
	}
}

type event struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// AppendEvent posts one row. Every failure is swallowed after logging.
func (a *Appender) AppendEvent(ctx context.Context, eventType string, payload map[string]string) {
	if a.webhookURL == "" {
		return
	}

	raw, err := json.Marshal(event{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		a.log.Warn("audit marshal failed", "event", eventType, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(raw))
	if err != nil {
		a.log.Warn("audit request failed", "event", eventType, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("audit append failed", "event", eventType, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.log.Warn("audit append rejected", "event", eventType, "status", resp.StatusCode)
	}
}
