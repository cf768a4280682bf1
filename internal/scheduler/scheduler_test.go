package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docexpiry/internal/service"
	"docexpiry/internal/service/mocks"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (b *blockingRunner) Run(ctx context.Context) (*service.SweepSummary, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &service.SweepSummary{Message: "sweep completed: 0 notifications sent"}, nil
}

type panicRunner struct{}

func (panicRunner) Run(context.Context) (*service.SweepSummary, error) { panic("nil map") }

type countingPoller struct {
	calls atomic.Int32
	last  time.Time
	err   error
}

func (p *countingPoller) Run(_ context.Context, now time.Time) (int, error) {
	p.calls.Add(1)
	p.last = now
	return 1, p.err
}

func TestScheduler_TriggerSweep(t *testing.T) {
	runner := new(mocks.MockSweepRunner)
	want := &service.SweepSummary{Message: "sweep completed: 2 notifications sent", NotificationsSent: 2}
	runner.On("Run", mock.Anything).Return(want, nil).Once()
	s := New(Config{SweepSchedule: "@every 12h"}, runner, nil, zerolog.Nop())

	got, err := s.TriggerSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, want, got)
	runner.AssertExpectations(t)
}

func TestScheduler_TriggerDuringRunIsRejected(t *testing.T) {
	runner := newBlockingRunner()
	s := New(Config{SweepSchedule: "@every 12h"}, runner, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := s.TriggerSweep(context.Background())
		done <- err
	}()
	<-runner.started

	_, err := s.TriggerSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	s.sweepTick()
	assert.Equal(t, int32(1), runner.calls.Load(), "cron tick during a run is skipped")

	close(runner.release)
	require.NoError(t, <-done)

	_, err = s.TriggerSweep(context.Background())
	assert.NoError(t, err, "lock is released after a run")
}

func TestScheduler_RecoversPanic(t *testing.T) {
	s := New(Config{SweepSchedule: "@every 12h"}, panicRunner{}, nil, zerolog.Nop())

	sum, err := s.TriggerSweep(context.Background())

	assert.Nil(t, sum)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep panicked")

	assert.NotPanics(t, s.sweepTick)
	_, err = s.TriggerSweep(context.Background())
	assert.Error(t, err, "scheduler keeps working after a panic")
}

func TestScheduler_SweepErrorIsReturned(t *testing.T) {
	runner := new(mocks.MockSweepRunner)
	runner.On("Run", mock.Anything).Return(nil, errors.New("db down"))
	s := New(Config{SweepSchedule: "@every 12h"}, runner, nil, zerolog.Nop())

	_, err := s.TriggerSweep(context.Background())

	assert.EqualError(t, err, "db down")
}

func TestScheduler_StartValidatesSchedules(t *testing.T) {
	runner := new(mocks.MockSweepRunner)

	err := New(Config{SweepSchedule: "every now and then"}, runner, nil, zerolog.Nop()).Start(context.Background())
	assert.ErrorContains(t, err, "invalid sweep schedule")

	err = New(Config{SweepSchedule: "@every 12h", PollSchedule: "61 * * * *"}, runner, &countingPoller{}, zerolog.Nop()).Start(context.Background())
	assert.ErrorContains(t, err, "invalid poll schedule")
}

func TestScheduler_RunOnStartAndStopWaits(t *testing.T) {
	runner := newBlockingRunner()
	s := New(Config{SweepSchedule: "0 3 * * *", PollSchedule: "@every 60s", RunOnStart: true}, runner, &countingPoller{}, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded, "stop waits for the running sweep")

	close(runner.release)
	assert.NoError(t, s.Stop(context.Background()), "stopping a stopped scheduler is a no-op")
}

func TestScheduler_PollTick(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	poller := &countingPoller{}
	s := New(Config{SweepSchedule: "@every 12h", PollSchedule: "@every 60s"}, new(mocks.MockSweepRunner), poller, zerolog.Nop())
	s.now = func() time.Time { return fixed }

	s.pollTick()
	poller.err = errors.New("db down")
	assert.NotPanics(t, s.pollTick)

	assert.Equal(t, int32(2), poller.calls.Load())
	assert.Equal(t, fixed, poller.last)
}
