// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
)

// minutesPerDay is the number of minutes in a calendar day.
const minutesPerDay = 24 * 60

// BookingService enumerates bookable slots for one owner under a recurring
// daily-window policy. Generation is deterministic: identical inputs,
// including now, always produce identical output.
type BookingService struct {
	BusyTimeService *BusyTimeService
	ConflictService *ConflictService
}

// NewBookingService creates a new BookingService.
func NewBookingService(busyTimeService *BusyTimeService, conflictService *ConflictService) *BookingService {
	return &BookingService{
		BusyTimeService: busyTimeService,
		ConflictService: conflictService,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *BookingService) ServiceReady() bool {
	return s.BusyTimeService != nil &&
		s.ConflictService != nil &&
		s.BusyTimeService.ServiceReady()
}

// GenerateBookingSlots enumerates conflict-free candidate slots for the
// owner's booking page within the query window. The caller supplies the
// owner's events as an in-memory snapshot and an explicit now; the service
// never reads a wall clock.
func (s *BookingService) GenerateBookingSlots(ctx context.Context, config models.BookingPageConfig, ownerID string, ownerEvents []*models.EventDefinition, window models.TimeWindow, now time.Time) ([]models.CandidateSlot, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if err := s.validateConfig(config); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, domain.NewValidationError("owner id is required")
	}
	if !window.IsValid() {
		return nil, domain.NewValidationError("query window start must be before its end")
	}

	loc := time.UTC
	if config.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid timezone %q", config.Timezone))
		}
	}

	constraints := config.Constraints
	duration := time.Duration(config.SlotDurationMinutes) * time.Minute

	// Events just outside the window still matter once buffers are applied.
	busyWindow := window.Expand(constraints.BufferBefore()+duration, constraints.BufferAfter()+duration)
	busy, err := s.BusyTimeService.IntervalsFromEvents(ctx, ownerID, ownerEvents, busyWindow, true)
	if err != nil {
		return nil, err
	}

	earliestStart := now.Add(time.Duration(constraints.MinNoticeMinutes) * time.Minute)
	latestStart := now.AddDate(0, 0, constraints.MaxAdvanceDays)

	var slots []models.CandidateSlot

	day := time.Date(window.From.In(loc).Year(), window.From.In(loc).Month(), window.From.In(loc).Day(), 0, 0, 0, 0, loc)
	for ; day.Before(window.To); day = day.AddDate(0, 0, 1) {
		if !config.DayEnabled(day.Weekday()) {
			continue
		}
		if s.dayAtBookingCap(day, busy, constraints.MaxBookingsPerDay) {
			continue
		}

		for minute := config.DailyStartMinute; minute+config.SlotDurationMinutes <= config.DailyEndMinute; minute += constraints.SlotGranularityMinutes {
			// Built from calendar fields so wall-clock slot times hold
			// across DST transitions.
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, loc)
			end := start.Add(duration)

			candidate := models.TimeWindow{From: start, To: end}
			if start.Before(window.From) || end.After(window.To) {
				continue
			}
			if start.Before(earliestStart) || start.After(latestStart) {
				continue
			}

			result, err := s.ConflictService.CheckConflict(candidate, constraints, busy)
			if err != nil {
				return nil, err
			}
			if result.Conflict {
				continue
			}

			slots = append(slots, models.CandidateSlot{
				StartTime: start.UTC(),
				EndTime:   end.UTC(),
			})
		}
	}

	slog.DebugContext(ctx, "generated booking slots",
		"owner_id", ownerID,
		"slots", len(slots),
	)

	return slots, nil
}

// dayAtBookingCap reports whether the owner already has the maximum number
// of bookings starting on the given calendar day.
func (s *BookingService) dayAtBookingCap(day time.Time, busy []models.BusyInterval, maxBookingsPerDay int) bool {
	if maxBookingsPerDay <= 0 {
		return false
	}
	nextDay := day.AddDate(0, 0, 1)
	count := 0
	for _, interval := range busy {
		start := interval.StartTime.In(day.Location())
		if !start.Before(day) && start.Before(nextDay) {
			count++
		}
	}
	return count >= maxBookingsPerDay
}

func (s *BookingService) validateConfig(config models.BookingPageConfig) error {
	if config.SlotDurationMinutes <= 0 {
		return domain.NewValidationError(fmt.Sprintf("slot duration must be positive, got %d", config.SlotDurationMinutes))
	}
	if config.Constraints.SlotGranularityMinutes <= 0 {
		return domain.NewValidationError(fmt.Sprintf("slot granularity must be positive, got %d", config.Constraints.SlotGranularityMinutes))
	}
	if config.Constraints.MinNoticeMinutes < 0 {
		return domain.NewValidationError("minimum notice must not be negative")
	}
	if config.Constraints.MaxAdvanceDays < 0 {
		return domain.NewValidationError("maximum advance days must not be negative")
	}
	if config.Constraints.BufferBeforeMinutes < 0 || config.Constraints.BufferAfterMinutes < 0 {
		return domain.NewValidationError("buffers must not be negative")
	}
	if config.DailyStartMinute < 0 || config.DailyEndMinute > minutesPerDay || config.DailyStartMinute >= config.DailyEndMinute {
		return domain.NewValidationError("daily window must satisfy 0 <= start < end <= 1440 minutes")
	}
	if len(config.EnabledDays) == 0 {
		return domain.NewValidationError("at least one enabled weekday is required")
	}
	return nil
}
