// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service implements the availability and scheduling engine: pure
// request/response computations over event snapshots supplied by the
// collaborators in the domain package.
package service

import (
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

type Service interface {
	ServiceReady() bool
}

// Services bundles the engine's components wired to a shared set of
// collaborators. Higher layers construct one Services per process and call
// it concurrently; none of the components hold mutable state between calls.
type Services struct {
	Occurrence   *OccurrenceService
	BusyTime     *BusyTimeService
	Conflict     *ConflictService
	Availability *AvailabilityService
	Booking      *BookingService
	Scheduler    *SchedulerService
}

// NewServices wires the full engine against the given collaborators.
func NewServices(
	eventSource domain.EventSource,
	permissionOracle domain.PermissionOracle,
	availabilityPolicy models.AvailabilityPolicy,
	schedulerConfig SchedulerConfig,
) *Services {
	occurrence := NewOccurrenceService()
	busyTime := NewBusyTimeService(eventSource, permissionOracle, occurrence)
	conflict := NewConflictService()
	availability := NewAvailabilityService(busyTime, permissionOracle, availabilityPolicy)

	return &Services{
		Occurrence:   occurrence,
		BusyTime:     busyTime,
		Conflict:     conflict,
		Availability: availability,
		Booking:      NewBookingService(busyTime, conflict),
		Scheduler:    NewSchedulerService(availability, schedulerConfig),
	}
}
