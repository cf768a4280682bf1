package mocks

import (
	"context"

	"docexpiry/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockSweepTrigger struct {
	mock.Mock
}

func (m *MockSweepTrigger) TriggerSweep(ctx context.Context) (*service.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepSummary), args.Error(1)
}

type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) Run(ctx context.Context) (*service.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepSummary), args.Error(1)
}
