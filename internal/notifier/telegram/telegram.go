package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/coinalert/internal/notifier"
)

const apiURL = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  apiURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token := cfg.StringParam("bot_token"); token != "" {
		t.botToken = token
	}
	if chatID := cfg.StringParam("chat_id"); chatID != "" {
		t.chatID = chatID
	}
	if url := cfg.StringParam("base_url"); url != "" {
		t.baseURL = url
	}
	if t.baseURL == "" {
		t.baseURL = apiURL
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	return nil
}

// Send posts text as a plain message; alert text is not escaped for Markdown.
func (t *Telegram) Send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id": t.chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
