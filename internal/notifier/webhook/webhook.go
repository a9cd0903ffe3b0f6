// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/coinalert/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
	now     func() time.Time
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Init(cfg notifier.Config) error {
	if url := cfg.StringParam("url"); url != "" {
		w.url = url
	}
	if headers := cfg.StringMapParam("headers"); headers != nil {
		w.headers = headers
	}

	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}

	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}
	if w.now == nil {
		w.now = time.Now
	}

	return nil
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	payload := map[string]any{
		"type":    "alert",
		"text":    text,
		"sent_at": w.now().UTC().Format(time.RFC3339),
	}
	return w.post(ctx, payload)
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
