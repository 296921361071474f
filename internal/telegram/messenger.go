// Package telegram binds the wizard to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ashureev/briefbot/internal/intake"
)

// ErrNoPrompt means there is no earlier prompt to edit for the user.
var ErrNoPrompt = errors.New("no prompt to edit")

// botClient is the part of *tgbotapi.BotAPI the messenger uses.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Messenger implements intake.Messenger over the Bot API. It remembers the
// last prompt message per user so button presses can edit it in place.
type Messenger struct {
	bot botClient

	mu      sync.Mutex
	prompts map[string]int
}

var _ intake.Messenger = (*Messenger)(nil)

// NewBot connects to the Bot API and verifies the token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return bot, nil
}

// NewMessenger wraps a connected bot.
func NewMessenger(bot *tgbotapi.BotAPI) *Messenger {
	return newMessenger(bot)
}

func newMessenger(bot botClient) *Messenger {
	return &Messenger{bot: bot, prompts: make(map[string]int)}
}

// SendText sends an HTML message to the user's private chat. Messages with
// buttons become the user's current prompt.
func (m *Messenger) SendText(_ context.Context, userID, text string, kb *intake.Keyboard) error {
	chatID, err := parseChatID(userID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup := inlineMarkup(kb); markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := m.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", userID, err)
	}
	if kb != nil {
		m.rememberPrompt(userID, sent.MessageID)
	}
	return nil
}

// EditLastPrompt rewrites the user's current prompt. Telegram's "message is
// not modified" answer counts as success.
func (m *Messenger) EditLastPrompt(_ context.Context, userID, text string, kb *intake.Keyboard) error {
	chatID, err := parseChatID(userID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	messageID, ok := m.prompts[userID]
	m.mu.Unlock()
	if !ok {
		return ErrNoPrompt
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = inlineMarkup(kb)

	if _, err := m.bot.Request(edit); err != nil && !isNotModified(err) {
		return fmt.Errorf("edit prompt of %s: %w", userID, err)
	}
	return nil
}

// AcknowledgeInteraction answers a callback query, as a popup alert when
// alert is set.
func (m *Messenger) AcknowledgeInteraction(_ context.Context, interactionID, alert string) error {
	cb := tgbotapi.NewCallback(interactionID, "")
	if alert != "" {
		cb = tgbotapi.NewCallbackWithAlert(interactionID, alert)
	}
	if _, err := m.bot.Request(cb); err != nil {
		return fmt.Errorf("answer callback %s: %w", interactionID, err)
	}
	return nil
}

// SendToChannel posts text to a chat given as a numeric id or @username.
func (m *Messenger) SendToChannel(_ context.Context, channelID, text string) error {
	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(channelID, "@") {
		msg = tgbotapi.NewMessageToChannel(channelID, text)
	} else {
		chatID, err := parseChatID(channelID)
		if err != nil {
			return err
		}
		msg = tgbotapi.NewMessage(chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := m.bot.Send(msg); err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

func (m *Messenger) rememberPrompt(userID string, messageID int) {
	if messageID == 0 {
		return
	}
	m.mu.Lock()
	m.prompts[userID] = messageID
	m.mu.Unlock()
}

func inlineMarkup(kb *intake.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb.Empty() {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func parseChatID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", id, err)
	}
	return n, nil
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified")
}
