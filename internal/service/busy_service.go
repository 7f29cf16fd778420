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
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/utils"
)

// BusyTimeService converts a person's direct and recurring events into
// sorted busy intervals, applying privacy redaction for the viewer.
type BusyTimeService struct {
	EventSource      domain.EventSource
	PermissionOracle domain.PermissionOracle
	Expander         domain.OccurrenceExpander
}

// NewBusyTimeService creates a new BusyTimeService.
func NewBusyTimeService(
	eventSource domain.EventSource,
	permissionOracle domain.PermissionOracle,
	expander domain.OccurrenceExpander,
) *BusyTimeService {
	return &BusyTimeService{
		EventSource:      eventSource,
		PermissionOracle: permissionOracle,
		Expander:         expander,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *BusyTimeService) ServiceReady() bool {
	return s.EventSource != nil &&
		s.PermissionOracle != nil &&
		s.Expander != nil
}

// ComputeBusyIntervals fetches the owner's events for the window and returns
// one busy interval per contributing occurrence, sorted by start. Overlapping
// intervals are never coalesced so each conflict can be attributed to its
// source event. When the viewer is not the owner, detail visibility is
// decided by the permission oracle; collaborator errors propagate unchanged.
func (s *BusyTimeService) ComputeBusyIntervals(ctx context.Context, ownerID string, window models.TimeWindow, viewerID string) ([]models.BusyInterval, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if ownerID == "" {
		return nil, domain.NewValidationError("owner id is required")
	}
	if !window.IsValid() {
		return nil, domain.NewValidationError("query window start must be before its end")
	}

	events, err := s.EventSource.GetEvents(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}

	detailVisible := viewerID == ownerID
	if !detailVisible {
		permission, err := s.PermissionOracle.CanView(ctx, ownerID, viewerID)
		if err != nil {
			return nil, err
		}
		// Busy-ness stays real even for a viewer without detail access; only
		// the labels get redacted.
		detailVisible = permission.DetailVisible
	}

	intervals, err := s.IntervalsFromEvents(ctx, ownerID, events, window, detailVisible)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "computed busy intervals",
		"owner_id", ownerID,
		"viewer_id", viewerID,
		"intervals", len(intervals),
	)

	return intervals, nil
}

// IntervalsFromEvents derives busy intervals from an in-memory event
// snapshot, expanding recurring series and applying their exceptions. Used
// by ComputeBusyIntervals and by callers that already hold the events, such
// as the booking slot generator.
func (s *BusyTimeService) IntervalsFromEvents(ctx context.Context, ownerID string, events []*models.EventDefinition, window models.TimeWindow, detailVisible bool) ([]models.BusyInterval, error) {
	exceptionsByParent := make(map[string][]*models.EventDefinition)
	eventsByUID := make(map[string]*models.EventDefinition, len(events))
	for _, event := range events {
		if event == nil {
			continue
		}
		eventsByUID[event.UID] = event
		if event.IsException && event.ParentEventUID != "" {
			exceptionsByParent[event.ParentEventUID] = append(exceptionsByParent[event.ParentEventUID], event)
		}
	}

	var intervals []models.BusyInterval

	for _, event := range events {
		if event == nil {
			continue
		}

		// Exceptions attached to a series in this snapshot are folded into
		// the parent's expansion below. Orphaned exceptions stand alone.
		if event.IsException && event.ParentEventUID != "" {
			if _, ok := eventsByUID[event.ParentEventUID]; ok {
				continue
			}
		}

		occurrences, err := s.Expander.ExpandWithExceptions(event, exceptionsByParent[event.UID], window)
		if err != nil {
			return nil, err
		}

		for _, occ := range occurrences {
			source := event
			if occ.IsException && occ.SourceEventUID != event.UID {
				if ex, ok := eventsByUID[occ.SourceEventUID]; ok {
					source = ex
				}
			}
			intervals = append(intervals, s.newBusyInterval(ownerID, source, occ, detailVisible))
		}
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].StartTime.Before(intervals[j].StartTime)
	})

	return intervals, nil
}

func (s *BusyTimeService) newBusyInterval(ownerID string, event *models.EventDefinition, occ models.Occurrence, detailVisible bool) models.BusyInterval {
	interval := models.BusyInterval{
		StartTime:       occ.StartTime,
		EndTime:         occ.EndTime,
		OwnerID:         ownerID,
		SourceEventUID:  occ.SourceEventUID,
		Private:         event.Private,
		Detail:          utils.CoalesceString(event.Title, models.RedactedDetail),
		NormalizedToUTC: occ.NormalizedToUTC,
	}
	if event.Private && !detailVisible {
		interval = interval.Redacted()
	}
	return interval
}
