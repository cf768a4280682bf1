package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docexpiry/internal/expiry"
	"docexpiry/internal/metrics"
	"docexpiry/internal/model"
	"docexpiry/internal/repository"
)

var tracer = otel.Tracer("docexpiry/internal/service")

// PersistenceError is a failed write that aborts dispatch of the current document.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchResult reports what happened to one alert.
type DispatchResult struct {
	NotificationID string          `json:"notification_id,omitempty"`
	AlertType      model.AlertType `json:"alert_type"`
	Skipped        bool            `json:"skipped"`
	Deliveries     []Delivery      `json:"deliveries,omitempty"`
}

// AlertDispatcher persists and delivers one alert.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, src repository.DocumentSource, doc model.Document, alert model.Alert) (*DispatchResult, error)
}

// Dispatcher writes the notification, fans it out, then sets the threshold flag.
type Dispatcher struct {
	notifications repository.NotificationRepository
	composer      *Composer
	deliverer     *Deliverer
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(notifications repository.NotificationRepository, composer *Composer, deliverer *Deliverer, m *metrics.Metrics, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		composer:      composer,
		deliverer:     deliverer,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

var _ AlertDispatcher = (*Dispatcher)(nil)

// Dispatch is a no-op returning Skipped when the threshold flag on doc is already set.
// Expired alerts are not gated and dispatch on every call.
// Delivery failures are recorded in the result; only persistence failures are returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, src repository.DocumentSource, doc model.Document, alert model.Alert) (*DispatchResult, error) {
	ctx, span := tracer.Start(ctx, "dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.id", doc.ID),
		attribute.String("document.kind", string(doc.Kind)),
		attribute.String("alert.type", string(alert.Type)),
	)

	res := &DispatchResult{AlertType: alert.Type}
	if expiry.AlreadySent(doc.Sent, alert.Type) {
		res.Skipped = true
		return res, nil
	}

	n := d.composer.Compose(doc, alert, d.now())
	stored, err := d.notifications.Create(ctx, n)
	if err != nil {
		perr := &PersistenceError{Op: "create notification", Err: err}
		span.SetStatus(codes.Error, perr.Error())
		return nil, perr
	}
	res.NotificationID = stored.ID
	msg := MessageFor(stored)

	res.Deliveries = append(res.Deliveries, d.deliverer.Fanout(ctx, msg)...)
	recipients := d.deliverer.Resolve(ctx, stored.UserID, stored.OwnerID)
	res.Deliveries = append(res.Deliveries, d.deliverer.Direct(ctx, msg, recipients)...)

	if expiry.Gated(alert.Type) {
		if err := src.MarkThresholdSent(ctx, doc.ID, alert.Type); err != nil {
			perr := &PersistenceError{Op: "mark threshold sent", Err: err}
			span.SetStatus(codes.Error, perr.Error())
			return res, perr
		}
	}
	d.metrics.AlertDispatched(alert.Type)

	d.log.Info().
		Str("event", "alert_dispatched").
		Str("document_id", doc.ID).
		Str("document_kind", string(doc.Kind)).
		Str("alert_type", string(alert.Type)).
		Int("days_remaining", alert.DaysRemaining).
		Str("notification_id", stored.ID).
		Int("deliveries", len(res.Deliveries)).
		Msg("alert dispatched")
	return res, nil
}
