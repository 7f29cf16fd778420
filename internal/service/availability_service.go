// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/concurrent"
)

// maxFanOutWorkers bounds concurrent event-source reads within one
// multi-party call.
const maxFanOutWorkers = 8

// AvailabilityService intersects availability across participants for a
// candidate window.
type AvailabilityService struct {
	BusyTimeService  *BusyTimeService
	PermissionOracle domain.PermissionOracle
	Policy           models.AvailabilityPolicy
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	busyTimeService *BusyTimeService,
	permissionOracle domain.PermissionOracle,
	policy models.AvailabilityPolicy,
) *AvailabilityService {
	return &AvailabilityService{
		BusyTimeService:  busyTimeService,
		PermissionOracle: permissionOracle,
		Policy:           policy,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *AvailabilityService) ServiceReady() bool {
	return s.BusyTimeService != nil &&
		s.PermissionOracle != nil &&
		s.BusyTimeService.ServiceReady()
}

// AnalyzeAvailability computes raw occupancy for each participant over the
// candidate window. The participant list must already be permission-filtered
// by the caller; every listed participant is scored. A participant is busy
// iff any of their busy intervals overlaps the window half-open; booking
// buffers are not applied at this stage.
func (s *AvailabilityService) AnalyzeAvailability(ctx context.Context, participantIDs []string, window models.TimeWindow) (*models.AvailabilitySummary, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if len(participantIDs) == 0 {
		return nil, domain.NewValidationError("at least one participant is required")
	}
	if !window.IsValid() {
		return nil, domain.NewValidationError("candidate window start must be before its end")
	}

	busyByParticipant, err := s.fetchBusyIntervals(ctx, participantIDs, window)
	if err != nil {
		return nil, err
	}

	summary := s.summarize(participantIDs, busyByParticipant, window)

	slog.DebugContext(ctx, "analyzed availability",
		"window_from", window.From,
		"window_to", window.To,
		"available", summary.AvailableCount,
		"busy", summary.BusyCount,
	)

	return summary, nil
}

// summarize scores one candidate window against busy intervals that were
// already fetched. busyByParticipant is indexed like participantIDs, so
// callers can reuse one fetch across many candidate windows.
func (s *AvailabilityService) summarize(participantIDs []string, busyByParticipant [][]models.BusyInterval, window models.TimeWindow) *models.AvailabilitySummary {
	summary := &models.AvailabilitySummary{Window: window}
	seenSources := make(map[string]struct{})

	for i, participantID := range participantIDs {
		summary.TotalCount++

		var conflicts []models.BusyInterval
		for _, interval := range busyByParticipant[i] {
			if window.Overlaps(interval.Window()) {
				conflicts = append(conflicts, interval)
			}
		}

		if len(conflicts) == 0 {
			summary.AvailableCount++
			summary.AvailableParticipantIDs = append(summary.AvailableParticipantIDs, participantID)
			continue
		}

		summary.BusyCount++
		summary.BusyParticipantIDs = append(summary.BusyParticipantIDs, participantID)
		for _, interval := range conflicts {
			if _, ok := seenSources[interval.SourceEventUID]; !ok {
				seenSources[interval.SourceEventUID] = struct{}{}
				summary.Conflicting = append(summary.Conflicting, interval)
			}
		}
	}

	sort.Slice(summary.Conflicting, func(i, j int) bool {
		return summary.Conflicting[i].StartTime.Before(summary.Conflicting[j].StartTime)
	})

	return summary
}

// AnalyzeAvailabilityFor is AnalyzeAvailability on behalf of a requester:
// participants the requester is not allowed to view are never scored as
// available. Depending on policy they either land in the unknown bucket,
// excluded from scoring, or are counted as busy.
func (s *AvailabilityService) AnalyzeAvailabilityFor(ctx context.Context, requesterID string, participantIDs []string, window models.TimeWindow) (*models.AvailabilitySummary, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if requesterID == "" {
		return nil, domain.NewValidationError("requester id is required")
	}

	var viewable, unknown []string
	for _, participantID := range participantIDs {
		if participantID == requesterID {
			viewable = append(viewable, participantID)
			continue
		}
		permission, err := s.PermissionOracle.CanView(ctx, participantID, requesterID)
		if err != nil {
			return nil, err
		}
		if permission.Allowed {
			viewable = append(viewable, participantID)
		} else {
			unknown = append(unknown, participantID)
		}
	}

	if len(viewable) == 0 {
		return nil, domain.NewValidationError("requester cannot view any of the participants")
	}

	summary, err := s.AnalyzeAvailability(ctx, viewable, window)
	if err != nil {
		return nil, err
	}

	summary.UnknownCount = len(unknown)
	summary.UnknownParticipantIDs = unknown
	if s.Policy.CountUnknownAsBusy {
		summary.TotalCount += len(unknown)
		summary.BusyCount += len(unknown)
		summary.BusyParticipantIDs = append(summary.BusyParticipantIDs, unknown...)
	}

	return summary, nil
}

// fetchBusyIntervals fans out the per-participant reads. Each goroutine
// writes only its own slot of the results slice, so aggregation needs no
// locking.
func (s *AvailabilityService) fetchBusyIntervals(ctx context.Context, participantIDs []string, window models.TimeWindow) ([][]models.BusyInterval, error) {
	results := make([][]models.BusyInterval, len(participantIDs))

	functions := make([]func() error, len(participantIDs))
	for i, participantID := range participantIDs {
		i, participantID := i, participantID
		functions[i] = func() error {
			// Owner view: only counts and source attribution leave this
			// service, never event details.
			intervals, err := s.BusyTimeService.ComputeBusyIntervals(ctx, participantID, window, participantID)
			if err != nil {
				return err
			}
			results[i] = intervals
			return nil
		}
	}

	workers := len(participantIDs)
	if workers > maxFanOutWorkers {
		workers = maxFanOutWorkers
	}
	pool := concurrent.NewWorkerPool(workers)
	if err := pool.Run(ctx, functions...); err != nil {
		return nil, err
	}

	return results, nil
}
