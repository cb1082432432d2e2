package notifications

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"

	"autopost/internal/config"
)

const (
	userAgent = "autopost/0.1.0"
	// Telegram rejects photo captions over this many characters.
	maxCaptionRunes = 1024
	maxMessageRunes = 4096
)

// Service defines the notification surface exposed to the scheduler and the
// diagnostics reporter.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	SendPhoto(ctx context.Context, path, caption string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a Telegram-backed service when a token and recipients are
// configured. Otherwise a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	token := strings.TrimSpace(cfg.Notifications.TelegramBotToken)
	if token == "" || len(cfg.Notifications.Recipients) == 0 {
		return noopService{}
	}

	timeout := config.Seconds(cfg.Notifications.RequestTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.Notifications.APIBaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}

	client := req.C().
		SetBaseURL(base + "/bot" + token).
		SetTimeout(timeout).
		SetUserAgent(userAgent)

	return &telegramService{
		client:     client,
		recipients: append([]string(nil), cfg.Notifications.Recipients...),
		outcomes:   cfg.Notifications.Outcomes,
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type telegramService struct {
	client     *req.Client
	recipients []string
	outcomes   bool
}

func (t *telegramService) Publish(ctx context.Context, event Event, payload Payload) error {
	if t == nil {
		return nil
	}
	if !t.outcomes && event != EventTestNotification {
		return nil
	}
	text, ok := formatMessage(event, payload)
	if !ok {
		return nil
	}
	return t.sendMessage(ctx, text)
}

func (t *telegramService) TestNotification(ctx context.Context) error {
	text, _ := formatMessage(EventTestNotification, nil)
	return t.sendMessage(ctx, text)
}

func (t *telegramService) sendMessage(ctx context.Context, text string) error {
	text = truncateRunes(text, maxMessageRunes)
	var errs []error
	for _, chatID := range t.recipients {
		resp, err := t.client.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"chat_id":                  chatID,
				"text":                     text,
				"disable_web_page_preview": "true",
			}).
			Post("/sendMessage")
		if err := checkResponse("sendMessage", chatID, resp, err); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *telegramService) SendPhoto(ctx context.Context, path, caption string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	caption = truncateRunes(caption, maxCaptionRunes)
	var errs []error
	for _, chatID := range t.recipients {
		resp, err := t.client.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"chat_id": chatID,
				"caption": caption,
			}).
			SetFile("photo", path).
			Post("/sendPhoto")
		if err := checkResponse("sendPhoto", chatID, resp, err); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// checkResponse interprets a Bot API reply. Telegram reports failures in the
// JSON body with ok=false and a description, usually alongside a 4xx status.
func checkResponse(method, chatID string, resp *req.Response, err error) error {
	if err != nil {
		return fmt.Errorf("telegram %s to %s: %w", method, chatID, err)
	}
	body := resp.Bytes()
	if gjson.GetBytes(body, "ok").Bool() {
		return nil
	}
	description := gjson.GetBytes(body, "description").String()
	if description == "" {
		description = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("telegram %s to %s returned %d: %s", method, chatID, resp.GetStatusCode(), description)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error  { return nil }
func (noopService) SendPhoto(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error          { return nil }
