package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docexpiry/internal/channel"
	"docexpiry/internal/metrics"
	"docexpiry/internal/repository"
)

// Delivery outcome values.
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// Delivery records one channel attempt.
type Delivery struct {
	Channel     string `json:"channel"`
	RecipientID string `json:"recipient_id,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Channels splits transports by addressing mode.
// Fanout channels receive one send per notification with no recipient; Direct channels receive one send per recipient.
type Channels struct {
	Fanout []channel.Channel
	Direct []channel.Channel
}

// Deliverer resolves recipients and drives channel sends.
type Deliverer struct {
	fanout    []channel.Channel
	direct    []channel.Channel
	disabled  map[string]bool
	directory repository.Directory
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewDeliverer checks every channel's configuration once; unconfigured channels are reported as skipped on every send.
func NewDeliverer(chs Channels, directory repository.Directory, timeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *Deliverer {
	d := &Deliverer{
		fanout:    chs.Fanout,
		direct:    chs.Direct,
		disabled:  make(map[string]bool),
		directory: directory,
		timeout:   timeout,
		metrics:   m,
		log:       log,
	}
	for _, ch := range append(append([]channel.Channel{}, chs.Fanout...), chs.Direct...) {
		if !ch.Configured() {
			d.disabled[ch.Name()] = true
			log.Warn().Str("event", "channel_disabled").Str("channel", ch.Name()).Msg("channel not configured, deliveries will be skipped")
		}
	}
	return d
}

// Resolve looks up the user and the owner as independent recipients.
// Lookup failures are logged and the recipient is left out.
func (d *Deliverer) Resolve(ctx context.Context, userID, ownerID *string) []*channel.Recipient {
	if d.directory == nil {
		return nil
	}
	var out []*channel.Recipient
	if userID != nil && *userID != "" {
		if c, err := d.directory.ResolveUser(ctx, *userID); err != nil {
			d.log.Warn().Str("event", "recipient_unresolved").Str("scope", string(channel.ScopeUser)).Str("id", *userID).Err(err).Msg("cannot resolve recipient")
		} else {
			out = append(out, toRecipient(c, channel.ScopeUser))
		}
	}
	if ownerID != nil && *ownerID != "" {
		if c, err := d.directory.ResolveOwner(ctx, *ownerID); err != nil {
			d.log.Warn().Str("event", "recipient_unresolved").Str("scope", string(channel.ScopeOwner)).Str("id", *ownerID).Err(err).Msg("cannot resolve recipient")
		} else {
			out = append(out, toRecipient(c, channel.ScopeOwner))
		}
	}
	return out
}

func toRecipient(c *repository.Contact, scope channel.Scope) *channel.Recipient {
	return &channel.Recipient{ID: c.ID, Scope: scope, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// Fanout sends msg once through each fanout channel, in order.
func (d *Deliverer) Fanout(ctx context.Context, msg channel.Message) []Delivery {
	out := make([]Delivery, 0, len(d.fanout))
	for _, ch := range d.fanout {
		out = append(out, d.send(ctx, ch, nil, msg))
	}
	return out
}

// Direct sends msg to every recipient through every direct channel concurrently and waits for all of them.
func (d *Deliverer) Direct(ctx context.Context, msg channel.Message, recipients []*channel.Recipient) []Delivery {
	out := make([]Delivery, len(d.direct)*len(recipients))
	var wg sync.WaitGroup
	i := 0
	for _, r := range recipients {
		for _, ch := range d.direct {
			wg.Add(1)
			go func(slot int, ch channel.Channel, r *channel.Recipient) {
				defer wg.Done()
				out[slot] = d.send(ctx, ch, r, msg)
			}(i, ch, r)
			i++
		}
	}
	wg.Wait()
	return out
}

func (d *Deliverer) send(ctx context.Context, ch channel.Channel, to *channel.Recipient, msg channel.Message) Delivery {
	res := Delivery{Channel: ch.Name()}
	if to != nil {
		res.RecipientID = to.ID
	}

	if d.disabled[ch.Name()] {
		res.Status = DeliverySkipped
		res.Error = channel.ErrNotConfigured.Error()
		d.metrics.Delivery(res.Channel, res.Status)
		return res
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := ch.Send(sendCtx, to, msg)
	switch {
	case err == nil:
		res.Status = DeliverySent
	case errors.Is(err, channel.ErrNoAddress), errors.Is(err, channel.ErrNotConfigured):
		res.Status = DeliverySkipped
		res.Error = err.Error()
	default:
		derr := &channel.DeliveryError{Channel: res.Channel, RecipientID: res.RecipientID, Err: err}
		res.Status = DeliveryFailed
		res.Error = derr.Error()
		ev := d.log.Warn().Str("event", "delivery_failed").Str("channel", res.Channel).Err(derr)
		if msg.Notification != nil {
			ev = ev.Str("notification_id", msg.Notification.ID)
		}
		ev.Msg("channel delivery failed")
	}
	d.metrics.Delivery(res.Channel, res.Status)
	return res
}
