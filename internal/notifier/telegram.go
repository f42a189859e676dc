// Package notifier delivers scan alerts through the Telegram Bot API.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier sends a formatted message to the user. Scheduled sends go
// through SendWithRetry; Send is a single attempt.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Noop is the notifier used when no credentials are configured.
type Noop struct{}

func (Noop) Send(context.Context, string) error { return nil }

func (Noop) SendWithRetry(context.Context, string, int) error { return nil }

// Telegram posts messages to a single chat. Credentials always come from
// configuration; there is deliberately no built-in default.
type Telegram struct {
	BotToken string
	ChatID   string
	BaseURL  string // overridable for tests
	Client   *http.Client

	retryBase time.Duration
	log       zerolog.Logger
}

// NewTelegram builds a Telegram notifier. Returns Noop when either
// credential is empty so callers never branch on configuration.
func NewTelegram(botToken, chatID string, log zerolog.Logger) Notifier {
	if botToken == "" || chatID == "" {
		log.Info().Msg("telegram credentials not configured, notifications disabled")
		return Noop{}
	}
	return &Telegram{
		BotToken:  botToken,
		ChatID:    chatID,
		BaseURL:   "https://api.telegram.org",
		Client:    &http.Client{Timeout: 10 * time.Second},
		retryBase: time.Second,
		log:       log.With().Str("component", "notifier").Logger(),
	}
}

// Send delivers one message with HTML formatting.
func (t *Telegram) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff.
func (t *Telegram) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(ctx, text); err != nil {
			lastErr = err
			base := t.retryBase
			if base <= 0 {
				base = time.Second
			}
			backoff := time.Duration(1<<uint(i)) * base
			t.log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("telegram send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
