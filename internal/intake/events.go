// Package intake runs the brief wizard: it applies inbound events to the
// persisted session, answers the user and delivers finished briefs.
package intake

import (
	"strings"

	"github.com/ashureev/briefbot/internal/domain"
)

// EventKind identifies an inbound event.
type EventKind string

const (
	EventStart    EventKind = "start"
	EventEntry    EventKind = "entry"
	EventChoice   EventKind = "choice"
	EventToggle   EventKind = "toggle"
	EventDone     EventKind = "done"
	EventNavigate EventKind = "navigate"
	EventText     EventKind = "text"
	EventEdit     EventKind = "edit"
	EventRevise   EventKind = "revise"
	EventResend   EventKind = "resend"
	EventCancel   EventKind = "cancel"
	EventUnknown  EventKind = "unknown"
)

// Direction of a navigation event.
type Direction string

const (
	Back Direction = "back"
	Next Direction = "next"
)

// Event is one inbound message or button press.
type Event struct {
	Kind   EventKind
	UserID string
	// InteractionID is set for button presses and must be acknowledged.
	InteractionID string
	Step          string
	Value         string
	Direction     Direction
	Text          string
	Profile       domain.Profile
}

// Button payloads. Telegram limits them to 64 bytes, so options travel by key.
const (
	payloadEntry  = "entry"
	payloadEdit   = "edit"
	payloadRevise = "revise"
	payloadResend = "resend"
	payloadCancel = "cancel"
	payloadBack   = "nav:back"
	payloadNext   = "nav:next"
)

func choicePayload(step, key string) string { return "c:" + step + ":" + key }
func togglePayload(step, key string) string { return "t:" + step + ":" + key }
func donePayload(step string) string        { return "d:" + step }

// ParsePayload turns button payload data into an event for userID.
// Unrecognized data yields an EventUnknown event.
func ParsePayload(userID, interactionID, data string) Event {
	ev := Event{Kind: EventUnknown, UserID: userID, InteractionID: interactionID}

	switch data {
	case payloadEntry:
		ev.Kind = EventEntry
		return ev
	case payloadEdit:
		ev.Kind = EventEdit
		return ev
	case payloadRevise:
		ev.Kind = EventRevise
		return ev
	case payloadResend:
		ev.Kind = EventResend
		return ev
	case payloadCancel:
		ev.Kind = EventCancel
		return ev
	case payloadBack:
		ev.Kind, ev.Direction = EventNavigate, Back
		return ev
	case payloadNext:
		ev.Kind, ev.Direction = EventNavigate, Next
		return ev
	}

	prefix, rest, ok := strings.Cut(data, ":")
	if !ok {
		return ev
	}
	switch prefix {
	case "c", "t":
		step, key, ok := strings.Cut(rest, ":")
		if !ok || step == "" || key == "" {
			return ev
		}
		ev.Kind, ev.Step, ev.Value = EventChoice, step, key
		if prefix == "t" {
			ev.Kind = EventToggle
		}
	case "d":
		if rest != "" {
			ev.Kind, ev.Step = EventDone, rest
		}
	}
	return ev
}

// ParseText turns a text message into an event. "/start" (optionally with a
// bot mention or deep-link argument) starts over; anything else is free text.
func ParseText(userID, text string) Event {
	trimmed := strings.TrimSpace(text)
	cmd, _, _ := strings.Cut(trimmed, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	if cmd == "/start" {
		return Event{Kind: EventStart, UserID: userID}
	}
	return Event{Kind: EventText, UserID: userID, Text: text}
}
