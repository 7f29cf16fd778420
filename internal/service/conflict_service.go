// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// ConflictService tests candidate intervals against busy-interval sets under
// booking buffers.
type ConflictService struct{}

// NewConflictService creates a new ConflictService.
func NewConflictService() *ConflictService {
	return &ConflictService{}
}

// CheckConflict expands the candidate by the constraints' buffers and tests
// it against the busy intervals with strict half-open overlap: intervals
// that only touch at an endpoint do not conflict. The result lists every
// conflicting interval so callers can explain the rejection.
func (s *ConflictService) CheckConflict(candidate models.TimeWindow, constraints models.SchedulingConstraints, busy []models.BusyInterval) (models.ConflictResult, error) {
	if !candidate.IsValid() {
		return models.ConflictResult{}, domain.NewValidationError("candidate start must be before its end")
	}
	if constraints.BufferBeforeMinutes < 0 || constraints.BufferAfterMinutes < 0 {
		return models.ConflictResult{}, domain.NewValidationError("buffers must not be negative")
	}

	expanded := candidate.Expand(constraints.BufferBefore(), constraints.BufferAfter())

	var result models.ConflictResult
	seenSources := make(map[string]struct{})

	for _, interval := range busy {
		if !expanded.Overlaps(interval.Window()) {
			continue
		}
		result.Conflict = true
		result.Conflicting = append(result.Conflicting, interval)
		if _, ok := seenSources[interval.SourceEventUID]; !ok {
			seenSources[interval.SourceEventUID] = struct{}{}
			result.ConflictingSources = append(result.ConflictingSources, interval.SourceEventUID)
		}
	}

	return result, nil
}
