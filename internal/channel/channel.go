// Package channel delivers composed notifications through broadcast, email, SMS and event transports.
package channel

import (
	"context"
	"errors"
	"fmt"

	"docexpiry/internal/model"
)

// Channel names.
const (
	NameBroadcast = "broadcast"
	NameEmail     = "email"
	NameSMS       = "sms"
	NameEvent     = "event"
)

var (
	// ErrNotConfigured is returned by Send on a channel missing credentials.
	ErrNotConfigured = errors.New("channel not configured")
	// ErrNoAddress is returned when the recipient has no address for the channel.
	ErrNoAddress = errors.New("recipient has no address for channel")
)

// Scope tells whether a recipient was resolved from a user or from a document owner.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeOwner Scope = "owner"
)

// Recipient is a resolved delivery target.
type Recipient struct {
	ID    string
	Scope Scope
	Name  string
	Email string
	Phone string
}

// Message is the composed content handed to every channel.
type Message struct {
	Notification *model.Notification
	Title        string
	Body         string
	// Attachment is an object key in document storage; empty means none.
	Attachment string
}

// Channel is one delivery transport.
// Fan-out channels (broadcast, event) accept a nil recipient.
type Channel interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, to *Recipient, msg Message) error
}

// DeliveryError wraps a failed send with the channel that produced it.
type DeliveryError struct {
	Channel     string
	RecipientID string
	Err         error
}

func (e *DeliveryError) Error() string {
	if e.RecipientID == "" {
		return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("deliver via %s to %s: %v", e.Channel, e.RecipientID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
