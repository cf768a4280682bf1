package mocks

import (
	"context"
	"time"

	"docexpiry/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) Kind() model.DocumentKind {
	args := m.Called()
	return args.Get(0).(model.DocumentKind)
}

func (m *MockDocumentSource) ListExpiring(ctx context.Context, today time.Time, withinDays int) ([]model.Document, error) {
	args := m.Called(ctx, today, withinDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentSource) ListExpired(ctx context.Context, today time.Time) ([]model.Document, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentSource) MarkThresholdSent(ctx context.Context, documentID string, threshold model.AlertType) error {
	args := m.Called(ctx, documentID, threshold)
	return args.Error(0)
}
