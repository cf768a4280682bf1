package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"docexpiry/internal/expiry"
	"docexpiry/internal/metrics"
	"docexpiry/internal/model"
	"docexpiry/internal/repository"
)

// SweepSummary is the outcome of one sweep over every source.
type SweepSummary struct {
	Message           string    `json:"message"`
	NotificationsSent int       `json:"notifications_sent"`
	DocumentsScanned  int       `json:"documents_scanned"`
	Skipped           int       `json:"skipped"`
	Failed            int       `json:"failed"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// SweepRunner runs a full sweep.
type SweepRunner interface {
	Run(ctx context.Context) (*SweepSummary, error)
}

// SweepTrigger starts a sweep on demand.
type SweepTrigger interface {
	TriggerSweep(ctx context.Context) (*SweepSummary, error)
}

// Sweeper evaluates every document of every source and dispatches the resulting alerts.
type Sweeper struct {
	sources    []repository.DocumentSource
	dispatcher AlertDispatcher
	metrics    *metrics.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// NewSweeper creates a Sweeper. Sources are visited in the given order.
func NewSweeper(sources []repository.DocumentSource, dispatcher AlertDispatcher, m *metrics.Metrics, log zerolog.Logger) *Sweeper {
	return &Sweeper{sources: sources, dispatcher: dispatcher, metrics: m, log: log, now: time.Now}
}

var _ SweepRunner = (*Sweeper)(nil)

// Run processes documents one at a time. A failing document or source query is counted and the sweep continues;
// only context cancellation stops it early.
func (s *Sweeper) Run(ctx context.Context) (*SweepSummary, error) {
	ctx, span := tracer.Start(ctx, "sweep")
	defer span.End()

	started := s.now()
	today := started.UTC()
	sum := &SweepSummary{StartedAt: started}

	for _, src := range s.sources {
		if err := s.sweepSource(ctx, src, today, sum); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				sum.FinishedAt = s.now()
				sum.Message = "sweep interrupted"
				return sum, err
			}
		}
	}

	sum.FinishedAt = s.now()
	sum.Message = fmt.Sprintf("sweep completed: %d notifications sent", sum.NotificationsSent)
	s.metrics.SweepFinished(sum.FinishedAt.Sub(started))
	span.SetAttributes(
		attribute.Int("sweep.scanned", sum.DocumentsScanned),
		attribute.Int("sweep.sent", sum.NotificationsSent),
		attribute.Int("sweep.failed", sum.Failed),
	)

	s.log.Info().
		Str("event", "sweep_completed").
		Int("notifications_sent", sum.NotificationsSent).
		Int("documents_scanned", sum.DocumentsScanned).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Dur("took", sum.FinishedAt.Sub(started)).
		Msg(sum.Message)
	return sum, nil
}

func (s *Sweeper) sweepSource(ctx context.Context, src repository.DocumentSource, today time.Time, sum *SweepSummary) error {
	log := s.log.With().Str("kind", string(src.Kind())).Logger()

	expired, err := src.ListExpired(ctx, today)
	if err != nil {
		sum.Failed++
		log.Error().Str("event", "source_query_failed").Str("query", "expired").Err(err).Msg("list expired documents")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	if err := s.process(ctx, src, expired, today, sum, log); err != nil {
		return err
	}

	expiring, err := src.ListExpiring(ctx, today, expiry.MaxLeadDays)
	if err != nil {
		sum.Failed++
		log.Error().Str("event", "source_query_failed").Str("query", "expiring").Err(err).Msg("list expiring documents")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return s.process(ctx, src, expiring, today, sum, log)
}

func (s *Sweeper) process(ctx context.Context, src repository.DocumentSource, docs []model.Document, today time.Time, sum *SweepSummary, log zerolog.Logger) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum.DocumentsScanned++

		alert, ok := expiry.Evaluate(doc, today)
		if !ok {
			continue
		}
		res, err := s.dispatcher.Dispatch(ctx, src, doc, alert)
		if err != nil {
			sum.Failed++
			log.Error().
				Str("event", "dispatch_failed").
				Str("document_id", doc.ID).
				Str("alert_type", string(alert.Type)).
				Err(err).
				Msg("dispatch failed")
			continue
		}
		if res.Skipped {
			sum.Skipped++
			continue
		}
		sum.NotificationsSent++
	}
	return nil
}
