package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/intake"
)

// DecodeUpdate reads one webhook update body.
func DecodeUpdate(r io.Reader) (tgbotapi.Update, error) {
	var u tgbotapi.Update
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}

// Event converts an update into a wizard event. It reports false for updates
// the wizard ignores: group chats, edits, channel posts and messages without
// text. A pressed button's message becomes the user's current prompt.
func (m *Messenger) Event(u tgbotapi.Update) (intake.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.From == nil {
			return intake.Event{}, false
		}
		userID := strconv.FormatInt(q.From.ID, 10)
		if q.Message != nil {
			m.rememberPrompt(userID, q.Message.MessageID)
		}
		ev := intake.ParsePayload(userID, q.ID, q.Data)
		ev.Profile = profile(q.From)
		return ev, true

	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || msg.Text == "" {
			return intake.Event{}, false
		}
		userID := strconv.FormatInt(msg.From.ID, 10)
		ev := intake.ParseText(userID, msg.Text)
		ev.Profile = profile(msg.From)
		return ev, true
	}
	return intake.Event{}, false
}

// UserID returns the sender of an update, or "" if it has none.
func UserID(u tgbotapi.Update) string {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return strconv.FormatInt(u.CallbackQuery.From.ID, 10)
	case u.Message != nil && u.Message.From != nil:
		return strconv.FormatInt(u.Message.From.ID, 10)
	}
	return ""
}

func profile(u *tgbotapi.User) domain.Profile {
	return domain.Profile{
		UserID:    strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
