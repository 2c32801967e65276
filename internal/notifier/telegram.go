package notifier

import (
	"context"
	"net/http"
	"time"

	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	// APIBase is the Bot API root, replaceable for tests.
	APIBase string
	// Retries is the number of extra attempts Report makes per alert.
	Retries int
	// Backoff is the first retry wait; it doubles per attempt.
	Backoff time.Duration

	client *resty.Client
	log    *logrus.Entry
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	client := resty.New().
		SetTimeout(40 * time.Second).
		SetHeader("Content-Type", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Retries:  2,
		Backoff:  time.Second,
		client:   client,
		log:      logger.Component("telegram"),
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) endpoint(method string) string {
	return t.APIBase + "/bot" + t.BotToken + "/" + method
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(t.endpoint("sendMessage"))
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	backoff := t.Backoff
	for i := 0; i <= maxRetries; i++ {
		if lastErr = t.Send(ctx, text); lastErr == nil {
			return nil
		}
		if i == maxRetries {
			break
		}
		t.log.Warnf("send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, lastErr, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return errors.Wrapf(lastErr, "all %d attempts failed", maxRetries+1)
}

// Report sends an alert for Buy and Sell events. Hold is ignored.
func (t *TelegramNotifier) Report(ctx context.Context, evt *model.SignalEvent) error {
	if !evt.Signal.Actionable() {
		return nil
	}
	return t.SendWithRetry(ctx, FormatSignalAlert(evt), t.Retries)
}
