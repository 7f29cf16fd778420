// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// MockEventSource implements EventSource for testing
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) GetEvents(ctx context.Context, ownerID string, window models.TimeWindow) ([]*models.EventDefinition, error) {
	args := m.Called(ctx, ownerID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventDefinition), args.Error(1)
}

// MockPermissionOracle implements PermissionOracle for testing
type MockPermissionOracle struct {
	mock.Mock
}

func (m *MockPermissionOracle) CanView(ctx context.Context, targetUserID, requesterID string) (ViewPermission, error) {
	args := m.Called(ctx, targetUserID, requesterID)
	return args.Get(0).(ViewPermission), args.Error(1)
}

// Compile-time interface checks
var (
	_ EventSource      = (*MockEventSource)(nil)
	_ PermissionOracle = (*MockPermissionOracle)(nil)
)
