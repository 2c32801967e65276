package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

// PollTimeout is the long-poll wait passed to getUpdates.
var PollTimeout = 30 * time.Second

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
// Only messages from the configured chat are answered.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		if ctx.Err() != nil {
			t.log.Info("polling stopped")
			return
		}

		next, err := t.pollOnce(ctx, offset, handler)
		if err != nil {
			if ctx.Err() != nil {
				t.log.Info("polling stopped")
				return
			}
			t.log.Warnf("polling request failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next
	}
}

// pollOnce fetches one batch of updates, answers them and returns the next offset.
func (t *TelegramNotifier) pollOnce(ctx context.Context, offset int, handler CommandHandler) (int, error) {
	var result updatesResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": strconv.Itoa(int(PollTimeout.Seconds())),
		}).
		Get(t.endpoint("getUpdates"))
	if err != nil {
		return offset, errors.Wrap(err, "get updates")
	}
	if !resp.IsSuccess() {
		return offset, errors.Errorf("get updates: status %d", resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return offset, errors.Wrap(err, "decode updates")
	}
	if !result.OK {
		return offset, errors.New("get updates: not ok")
	}

	for _, update := range result.Result {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		if strconv.FormatInt(update.Message.Chat.ID, 10) != t.ChatID {
			t.log.Debugf("ignoring message from chat %d", update.Message.Chat.ID)
			continue
		}
		text := strings.TrimSpace(update.Message.Text)
		t.log.Infof("received command: %s", text)
		if reply := handler(text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.log.Errorf("send reply: %v", err)
			}
		}
	}
	return offset, nil
}
