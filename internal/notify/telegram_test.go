package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

func telegramServer(t *testing.T, status int, body string, got *sendMessageRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestTelegramSendWithButton(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	srv := telegramServer(t, http.StatusOK, `{"ok":true}`, &got)
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{APIBase: srv.URL, Token: "token123", ChatID: 42})
	err := tg.Send(context.Background(), tracker.Message{
		Text:       "hello",
		ButtonText: "Download",
		ButtonURL:  "https://dl.example.com/f",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "hello", got.Text)
	require.NotNil(t, got.ReplyMarkup)
	require.Len(t, got.ReplyMarkup.InlineKeyboard, 1)
	require.Len(t, got.ReplyMarkup.InlineKeyboard[0], 1)
	assert.Equal(t, "Download", got.ReplyMarkup.InlineKeyboard[0][0].Text)
}

func TestTelegramSendOmitsKeyboardWithoutButton(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	srv := telegramServer(t, http.StatusOK, `{"ok":true}`, &got)
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{APIBase: srv.URL, Token: "token123", ChatID: 42})
	require.NoError(t, tg.Send(context.Background(), tracker.Message{Text: "plain"}))
	assert.Nil(t, got.ReplyMarkup)
}

func TestTelegramSendMapsRateLimit(t *testing.T) {
	t.Parallel()

	srv := telegramServer(t, http.StatusTooManyRequests,
		`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 23","parameters":{"retry_after":23}}`, nil)
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{APIBase: srv.URL, Token: "token123", ChatID: 42})
	err := tg.Send(context.Background(), tracker.Message{Text: "hello"})

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 23*time.Second, rl.RetryAfter)
}

func TestTelegramSendMapsMessageTooLong(t *testing.T) {
	t.Parallel()

	srv := telegramServer(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: message is too long"}`, nil)
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{APIBase: srv.URL, Token: "token123", ChatID: 42})
	err := tg.Send(context.Background(), tracker.Message{Text: "hello"})

	var tl *MessageTooLongError
	require.ErrorAs(t, err, &tl)
	assert.Equal(t, maxMessageLen, tl.Limit)
}

func TestTelegramSendReportsOtherFailures(t *testing.T) {
	t.Parallel()

	srv := telegramServer(t, http.StatusForbidden,
		`{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked"}`, nil)
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{APIBase: srv.URL, Token: "token123", ChatID: 42})
	err := tg.Send(context.Background(), tracker.Message{Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden")
}
