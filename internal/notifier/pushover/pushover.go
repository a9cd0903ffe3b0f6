// Package pushover delivers alerts as Pushover push notifications.
package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/coinalert/internal/notifier"
)

const apiURL = "https://api.pushover.net/1/messages.json"

// Pushover implements the Notifier interface for the Pushover message API
type Pushover struct {
	token   string
	user    string
	title   string
	baseURL string
	client  *http.Client
}

// New creates a new Pushover notifier
func New(token, user string) *Pushover {
	return &Pushover{
		token:   token,
		user:    user,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Pushover) Name() string { return "pushover" }

func (p *Pushover) Init(cfg notifier.Config) error {
	if token := cfg.StringParam("token"); token != "" {
		p.token = token
	}
	if user := cfg.StringParam("user"); user != "" {
		p.user = user
	}
	if title := cfg.StringParam("title"); title != "" {
		p.title = title
	}
	if u := cfg.StringParam("base_url"); u != "" {
		p.baseURL = u
	}
	if p.baseURL == "" {
		p.baseURL = apiURL
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 15 * time.Second}
	}

	if p.token == "" {
		return fmt.Errorf("pushover: token is required")
	}
	if p.user == "" {
		return fmt.Errorf("pushover: user is required")
	}
	return nil
}

func (p *Pushover) Send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.user)
	form.Set("message", text)
	if p.title != "" {
		form.Set("title", p.title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("pushover: decoding response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || result.Status != 1 {
		return fmt.Errorf("pushover: API error (status %d): %s", resp.StatusCode, strings.Join(result.Errors, "; "))
	}
	return nil
}
