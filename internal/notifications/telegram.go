package notifications

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	client *resty.Client
	token  string
	chatID string
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return NewTelegramNotifierWithURL(telegramAPI, token, chatID)
}

// NewTelegramNotifierWithURL points the notifier at a different Bot API host
func NewTelegramNotifierWithURL(baseURL, token, chatID string) *TelegramNotifier {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &TelegramNotifier{
		client: client,
		token:  token,
		chatID: chatID,
	}
}

// Enabled reports whether both token and chat id are configured
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.token != "" && t.chatID != ""
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	if !t.Enabled() {
		return nil
	}

	emoji := "ℹ️"
	switch level {
	case LevelWarning:
		emoji = "⚠️"
	case LevelError:
		emoji = "🚨"
	case LevelSuccess:
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *Prop Ledger Alert*\n\n%s", emoji, message)

	resp, err := t.client.R().
		SetFormData(map[string]string{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode())
	}

	return nil
}
