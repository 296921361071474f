package operator

import (
	"context"
	"time"

	"github.com/ashureev/briefbot/internal/intake"
)

// FeedMessenger mirrors every operator channel delivery to the hub. All other
// calls go straight to the wrapped messenger.
type FeedMessenger struct {
	intake.Messenger
	hub *Hub
}

// WithFeed wraps m so channel deliveries are also broadcast on hub.
func WithFeed(m intake.Messenger, hub *Hub) *FeedMessenger {
	return &FeedMessenger{Messenger: m, hub: hub}
}

// SendToChannel delivers through the wrapped messenger, then broadcasts the
// brief with the delivery outcome.
func (f *FeedMessenger) SendToChannel(ctx context.Context, channelID, text string) error {
	err := f.Messenger.SendToChannel(ctx, channelID, text)

	b := Brief{Type: "brief", Channel: channelID, Text: text, Delivered: err == nil, At: time.Now().UTC()}
	if err != nil {
		b.Error = err.Error()
	}
	f.hub.Broadcast(b)
	return err
}
