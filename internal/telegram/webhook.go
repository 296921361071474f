package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SetWebhook registers url as the bot's webhook. Telegram will send secret
// back in the X-Telegram-Bot-Api-Secret-Token header.
func (m *Messenger) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query"}); err != nil {
		return fmt.Errorf("encode allowed updates: %w", err)
	}

	resp, err := m.bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	slog.Info("Webhook registered", "url", url, "description", resp.Description)
	return nil
}

// DeleteWebhook removes the webhook registration.
func (m *Messenger) DeleteWebhook(dropPending bool) error {
	if _, err := m.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	slog.Info("Webhook deleted", "drop_pending", dropPending)
	return nil
}
