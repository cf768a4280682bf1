package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docexpiry/internal/model"
	"docexpiry/internal/repository"
	repoMocks "docexpiry/internal/repository/mocks"
)

func newTestSweeper(h *harness, sources ...repository.DocumentSource) *Sweeper {
	s := NewSweeper(sources, h.dispatcher, nil, zerolog.Nop())
	s.now = func() time.Time { return sweepDay }
	return s
}

func sweepFixture() *memSource {
	return &memSource{
		kind: model.KindLicense,
		docs: []model.Document{
			licenseDoc(date(2025, time.June, 6)),
			{ID: "lic-2", Kind: model.KindLicense, OwnerID: "co-1", OwnerName: "Acme", DocType: "work_permit", ExpiryDate: date(2025, time.May, 31)},
			{ID: "lic-3", Kind: model.KindLicense, OwnerID: "co-1", OwnerName: "Acme", DocType: "work_permit", ExpiryDate: date(2025, time.November, 20)},
			{ID: "lic-4", Kind: model.KindLicense, OwnerID: "co-1", OwnerName: "Acme", DocType: "work_permit", ExpiryDate: date(2026, time.January, 1)},
			{ID: "lic-5", Kind: model.KindLicense, OwnerID: "co-1", OwnerName: "Acme", DocType: "work_permit"},
		},
	}
}

func TestSweeper_Run(t *testing.T) {
	h := newHarness(t)
	src := sweepFixture()
	s := newTestSweeper(h, src)

	sum, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, sum.NotificationsSent)
	assert.Equal(t, 3, sum.DocumentsScanned)
	assert.Zero(t, sum.Skipped)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, "sweep completed: 3 notifications sent", sum.Message)
	assert.Equal(t, sweepDay, sum.StartedAt)

	types := map[model.AlertType]int{}
	for _, n := range h.notifications.items {
		types[n.AlertType]++
	}
	assert.Equal(t, map[model.AlertType]int{model.AlertOneWeek: 1, model.AlertExpired: 1, model.AlertSixMonths: 1}, types)
	assert.Equal(t, model.AlertExpired, h.notifications.items[0].AlertType, "expired documents are processed first")

	assert.True(t, src.docs[0].Sent.OneWeek)
	assert.True(t, src.docs[2].Sent.SixMonths)
}

func TestSweeper_SecondRunOnlyRepeatsExpired(t *testing.T) {
	h := newHarness(t)
	src := sweepFixture()
	s := newTestSweeper(h, src)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.NotificationsSent)
	assert.Equal(t, 2, second.Skipped)

	perDoc := map[string]int{}
	for _, n := range h.notifications.items {
		perDoc[*n.DocumentID]++
	}
	assert.Equal(t, map[string]int{"lic-1": 1, "lic-2": 2, "lic-3": 1}, perDoc)
}

func TestSweeper_ContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	broken := &memSource{kind: model.KindCompanyDocument, listErr: errors.New("relation does not exist")}
	flaky := sweepFixture()
	flaky.markErr = errors.New("deadlock")
	s := newTestSweeper(h, broken, flaky)

	sum, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, sum.Failed, "two source queries and two flag writes fail")
	assert.Equal(t, 1, sum.NotificationsSent)
	assert.Equal(t, 3, sum.DocumentsScanned)
}

func TestSweeper_UsesDispatcherPerDocument(t *testing.T) {
	src := new(repoMocks.MockDocumentSource)
	doc := licenseDoc(date(2025, time.June, 6))
	src.On("Kind").Return(model.KindLicense)
	src.On("ListExpired", mock.Anything, sweepDay).Return([]model.Document{}, nil)
	src.On("ListExpiring", mock.Anything, sweepDay, 180).Return([]model.Document{doc}, nil)

	disp := &countingDispatcher{result: &DispatchResult{Skipped: true}}
	s := NewSweeper([]repository.DocumentSource{src}, disp, nil, zerolog.Nop())
	s.now = func() time.Time { return sweepDay }

	sum, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, model.AlertOneWeek, disp.last.Type)
	assert.Equal(t, 5, disp.last.DaysRemaining)
	assert.Equal(t, 1, sum.Skipped)
	src.AssertExpectations(t)
}

func TestSweeper_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	s := newTestSweeper(h, sweepFixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Equal(t, "sweep interrupted", sum.Message)
	assert.Empty(t, h.notifications.items)
}

type countingDispatcher struct {
	calls  int
	last   model.Alert
	result *DispatchResult
}

func (c *countingDispatcher) Dispatch(_ context.Context, _ repository.DocumentSource, _ model.Document, alert model.Alert) (*DispatchResult, error) {
	c.calls++
	c.last = alert
	return c.result, nil
}
