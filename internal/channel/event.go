package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"docexpiry/internal/model"
)

// EventEnvelope is the JSON body published for every dispatched notification.
type EventEnvelope struct {
	Meta    EventMeta           `json:"meta"`
	Payload *model.Notification `json:"payload"`
}

// EventMeta identifies one published event.
type EventMeta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlation_id"`
	Time          time.Time `json:"time"`
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Event publishes notifications to a topic exchange for downstream consumers.
type Event struct {
	mu         sync.Mutex
	pub        amqpPublisher
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
	now        func() time.Time
}

// DialEvent connects to the broker and declares a durable topic exchange.
func DialEvent(url, exchange, routingKey string) (*Event, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	e := newEvent(ch, exchange, routingKey)
	e.conn = conn
	e.ch = ch
	return e, nil
}

func newEvent(pub amqpPublisher, exchange, routingKey string) *Event {
	return &Event{pub: pub, exchange: exchange, routingKey: routingKey, now: time.Now}
}

var _ Channel = (*Event)(nil)

func (e *Event) Name() string { return NameEvent }

func (e *Event) Configured() bool { return e != nil && e.pub != nil }

// Send publishes msg.Notification; the recipient is ignored.
func (e *Event) Send(ctx context.Context, _ *Recipient, msg Message) error {
	if !e.Configured() {
		return ErrNotConfigured
	}
	if msg.Notification == nil {
		return fmt.Errorf("event: notification is required")
	}
	env := EventEnvelope{
		Meta: EventMeta{
			ID:            uuid.NewString(),
			Type:          msg.Notification.Type,
			CorrelationID: msg.Notification.ID,
			Time:          e.now().UTC(),
		},
		Payload: msg.Notification,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pub.PublishWithContext(ctx, e.exchange, e.routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Type:          env.Meta.Type,
		Timestamp:     env.Meta.Time,
		Body:          body,
	})
}

// Close releases the broker connection.
func (e *Event) Close() error {
	if e.ch != nil {
		_ = e.ch.Close()
	}
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}
