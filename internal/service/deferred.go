package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docexpiry/internal/metrics"
	"docexpiry/internal/repository"
)

// DeferredSender delivers scheduled notifications once their time has come.
type DeferredSender struct {
	notifications repository.NotificationRepository
	deliverer     *Deliverer
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// NewDeferredSender creates a DeferredSender.
func NewDeferredSender(notifications repository.NotificationRepository, deliverer *Deliverer, m *metrics.Metrics, log zerolog.Logger) *DeferredSender {
	return &DeferredSender{notifications: notifications, deliverer: deliverer, metrics: m, log: log}
}

// Run sends every due notification through the direct channels and marks it sent.
// It returns how many notifications were flipped to sent.
func (s *DeferredSender) Run(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "deferred_send", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	due, err := s.notifications.ListDueScheduled(ctx, now)
	if err != nil {
		span.RecordError(err)
		return 0, &PersistenceError{Op: "list due scheduled", Err: err}
	}
	span.SetAttributes(attribute.Int("deferred.due", len(due)))

	sent := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		n := &due[i]
		recipients := s.deliverer.Resolve(ctx, n.UserID, n.OwnerID)
		deliveries := s.deliverer.Direct(ctx, MessageFor(n), recipients)

		flipped, err := s.notifications.MarkSent(ctx, n.ID)
		if err != nil {
			s.log.Error().Str("event", "mark_sent_failed").Str("notification_id", n.ID).Err(err).Msg("mark scheduled notification sent")
			continue
		}
		if !flipped {
			continue
		}
		sent++
		s.metrics.DeferredSent()
		s.log.Info().
			Str("event", "deferred_sent").
			Str("notification_id", n.ID).
			Int("deliveries", len(deliveries)).
			Msg("scheduled notification sent")
	}
	return sent, nil
}
