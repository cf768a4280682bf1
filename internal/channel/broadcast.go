package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"docexpiry/internal/realtime"
)

// Broadcast pushes notifications to every live connection as bare Notification JSON.
// Addressing lives in the notification itself; the transport does not filter.
type Broadcast struct {
	pub realtime.Publisher
}

// NewBroadcast creates a broadcast channel on top of a hub or a relay.
func NewBroadcast(pub realtime.Publisher) *Broadcast {
	return &Broadcast{pub: pub}
}

var _ Channel = (*Broadcast)(nil)

func (b *Broadcast) Name() string { return NameBroadcast }

func (b *Broadcast) Configured() bool { return b.pub != nil }

// Send ignores the recipient and publishes to all connections.
func (b *Broadcast) Send(ctx context.Context, _ *Recipient, msg Message) error {
	if b.pub == nil {
		return ErrNotConfigured
	}
	if msg.Notification == nil {
		return fmt.Errorf("broadcast: notification is required")
	}
	payload, err := json.Marshal(msg.Notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return b.pub.Publish(ctx, payload)
}
