package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig identifies the bot and target chat.
type TelegramConfig struct {
	APIBase string
	Token   string
	ChatID  int64
	Timeout time.Duration
}

// Telegram sends messages through the Telegram Bot API, translating its
// rate-limit and length-limit responses into the typed errors the Notifier
// recovers from.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
}

// NewTelegram builds a Telegram sender with its own pooled HTTP client.
func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultTelegramAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Telegram{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ReplyMarkup *struct {
		InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	} `json:"reply_markup,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send posts one sendMessage call.
func (t *Telegram) Send(ctx context.Context, msg tracker.Message) error {
	payload := sendMessageRequest{
		ChatID: t.cfg.ChatID,
		Text:   msg.Text,
	}
	if msg.ButtonText != "" && msg.ButtonURL != "" {
		payload.ReplyMarkup = &struct {
			InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
		}{
			InlineKeyboard: [][]inlineButton{{{Text: msg.ButtonText, URL: msg.ButtonURL}}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.APIBase, "/"), t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sendMessage: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode sendMessage response: %w", err)
	}
	if decoded.OK {
		return nil
	}

	switch {
	case decoded.ErrorCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: time.Duration(decoded.Parameters.RetryAfter) * time.Second}
	case strings.Contains(strings.ToLower(decoded.Description), "message is too long"):
		return &MessageTooLongError{Limit: maxMessageLen}
	default:
		return fmt.Errorf("sendMessage failed: %d %s", decoded.ErrorCode, decoded.Description)
	}
}
