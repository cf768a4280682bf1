package mocks

import (
	"context"

	"docexpiry/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ResolveUser(ctx context.Context, userID string) (*repository.Contact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Contact), args.Error(1)
}

func (m *MockDirectory) ResolveOwner(ctx context.Context, ownerID string) (*repository.Contact, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Contact), args.Error(1)
}
