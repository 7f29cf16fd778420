// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// OccurrenceExpander defines the interface for materializing concrete
// occurrences from recurring event definitions.
type OccurrenceExpander interface {
	// ExpandRecurrence expands one event definition over a half-open query
	// window and returns its occurrences ordered by start time. A
	// non-recurring definition yields exactly the literal event if it
	// intersects the window, otherwise nothing.
	ExpandRecurrence(event *models.EventDefinition, window models.TimeWindow) ([]models.Occurrence, error)

	// ExpandWithExceptions is ExpandRecurrence with the series' exception
	// events applied: cancelled occurrences are removed and rescheduled ones
	// replaced before the result is returned.
	ExpandWithExceptions(event *models.EventDefinition, exceptions []*models.EventDefinition, window models.TimeWindow) ([]models.Occurrence, error)

	// SeriesEnd returns the end time of a series' final occurrence, or nil
	// when the series is unbounded.
	SeriesEnd(event *models.EventDefinition) *time.Time
}
