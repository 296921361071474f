package intake

import "context"

// Button is one inline button; Data is the payload sent back on press.
type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons.
type Keyboard struct {
	Rows [][]Button
}

func (k *Keyboard) row(buttons ...Button) {
	if len(buttons) > 0 {
		k.Rows = append(k.Rows, buttons)
	}
}

// Empty reports whether the keyboard has no buttons.
func (k *Keyboard) Empty() bool {
	return k == nil || len(k.Rows) == 0
}

// Messenger is the outbound side of the chat transport. Text uses Telegram
// HTML markup.
type Messenger interface {
	// SendText sends a new message to the user, with optional buttons.
	SendText(ctx context.Context, userID, text string, kb *Keyboard) error

	// EditLastPrompt replaces the last prompt shown to the user in place.
	EditLastPrompt(ctx context.Context, userID, text string, kb *Keyboard) error

	// AcknowledgeInteraction confirms a button press, optionally with an alert.
	AcknowledgeInteraction(ctx context.Context, interactionID, alert string) error

	// SendToChannel delivers text to the operator channel.
	SendToChannel(ctx context.Context, channelID, text string) error
}

// Recorder observes controller outcomes for metrics.
type Recorder interface {
	ObserveEvent(kind, outcome string)
	ObserveFinalize(resend bool)
	ObserveDelivery(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvent(string, string) {}
func (nopRecorder) ObserveFinalize(bool)        {}
func (nopRecorder) ObserveDelivery(bool)        {}
