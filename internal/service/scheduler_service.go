// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
)

const (
	// candidateStepMinutes is the grid on which optimizer candidates start.
	candidateStepMinutes = 30

	// defaultMaxCandidates is the per-search evaluation budget. A search
	// that exhausts it returns a partial result flagged as truncated.
	defaultMaxCandidates = 2000

	// nextAvailableHorizonDays bounds the find-next-available search.
	nextAvailableHorizonDays = 14
)

// SchedulerConfig is the configuration for the SchedulerService.
type SchedulerConfig struct {
	// WorkingHours restricts candidate generation. The zero value is
	// replaced with the default Mon-Fri 09:00-17:00 policy.
	WorkingHours models.WorkingHoursPolicy
	// MaxCandidates is the evaluation budget per search; zero means the
	// default budget.
	MaxCandidates int
}

// SchedulerService generates, scores, and ranks candidate meeting times for
// multi-attendee scheduling. It is a pure request/response pipeline with no
// state to resume.
type SchedulerService struct {
	AvailabilityService *AvailabilityService
	Config              SchedulerConfig
}

// NewSchedulerService creates a new SchedulerService.
func NewSchedulerService(availabilityService *AvailabilityService, config SchedulerConfig) *SchedulerService {
	if len(config.WorkingHours.Weekdays) == 0 {
		config.WorkingHours = models.DefaultWorkingHours()
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = defaultMaxCandidates
	}
	return &SchedulerService{
		AvailabilityService: availabilityService,
		Config:              config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SchedulerService) ServiceReady() bool {
	return s.AvailabilityService != nil && s.AvailabilityService.ServiceReady()
}

// FindOptimalTimes searches the window for the best meeting times for the
// attendees and returns up to maxSuggestions ranked slots. Busy intervals
// are fetched once per attendee for the whole window and every candidate is
// scored against that snapshot in memory. The search is deterministic for
// identical inputs. When the candidate budget runs out before the window is
// covered the partial result is flagged Truncated.
func (s *SchedulerService) FindOptimalTimes(ctx context.Context, attendeeIDs []string, durationMinutes int, window models.TimeWindow, maxSuggestions int) (*models.SuggestionResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if err := s.validateSearch(attendeeIDs, durationMinutes, window); err != nil {
		return nil, err
	}
	if maxSuggestions <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("max suggestions must be positive, got %d", maxSuggestions))
	}

	busyByAttendee, err := s.AvailabilityService.fetchBusyIntervals(ctx, attendeeIDs, window)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	result := &models.SuggestionResult{}
	var scored []models.RankedSlot

	for start := s.alignToStep(window.From); start.Before(window.To); start = start.Add(candidateStepMinutes * time.Minute) {
		end := start.Add(duration)
		if end.After(window.To) {
			break
		}
		if !s.withinWorkingHours(start, end) {
			continue
		}

		if result.Evaluated >= s.Config.MaxCandidates {
			result.Truncated = true
			slog.WarnContext(ctx, "optimal time search truncated at candidate budget",
				"budget", s.Config.MaxCandidates,
			)
			break
		}
		result.Evaluated++

		summary := s.AvailabilityService.summarize(attendeeIDs, busyByAttendee, models.TimeWindow{From: start, To: end})

		scored = append(scored, models.RankedSlot{
			UID:          slotUID(start, end),
			Score:        s.scoreCandidate(start, summary),
			AllAvailable: summary.AllAvailable(),
			CandidateSlot: models.CandidateSlot{
				StartTime:               start,
				EndTime:                 end,
				AvailableParticipantIDs: summary.AvailableParticipantIDs,
				BusyParticipantIDs:      summary.BusyParticipantIDs,
			},
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if len(scored[i].AvailableParticipantIDs) != len(scored[j].AvailableParticipantIDs) {
			return len(scored[i].AvailableParticipantIDs) > len(scored[j].AvailableParticipantIDs)
		}
		return scored[i].StartTime.Before(scored[j].StartTime)
	})

	if len(scored) > maxSuggestions {
		scored = scored[:maxSuggestions]
	}
	for i := range scored {
		scored[i].Rank = i + 1
		scored[i].Justification = s.justify(&scored[i], len(attendeeIDs))
	}
	result.Slots = scored

	slog.DebugContext(ctx, "optimal time search finished",
		"evaluated", result.Evaluated,
		"suggestions", len(result.Slots),
		"truncated", result.Truncated,
	)

	return result, nil
}

// FindNextAvailableSlot returns the chronologically first candidate within a
// fixed horizon where every attendee is available, ignoring score ranking.
func (s *SchedulerService) FindNextAvailableSlot(ctx context.Context, attendeeIDs []string, durationMinutes int, from time.Time) (*models.CandidateSlot, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	horizon := models.TimeWindow{From: from, To: from.AddDate(0, 0, nextAvailableHorizonDays)}
	if err := s.validateSearch(attendeeIDs, durationMinutes, horizon); err != nil {
		return nil, err
	}

	busyByAttendee, err := s.AvailabilityService.fetchBusyIntervals(ctx, attendeeIDs, horizon)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	evaluated := 0

	for start := s.alignToStep(horizon.From); start.Before(horizon.To); start = start.Add(candidateStepMinutes * time.Minute) {
		end := start.Add(duration)
		if end.After(horizon.To) {
			break
		}
		if !s.withinWorkingHours(start, end) {
			continue
		}
		if evaluated >= s.Config.MaxCandidates {
			break
		}
		evaluated++

		summary := s.AvailabilityService.summarize(attendeeIDs, busyByAttendee, models.TimeWindow{From: start, To: end})
		if summary.AllAvailable() {
			return &models.CandidateSlot{
				StartTime:               start,
				EndTime:                 end,
				AvailableParticipantIDs: summary.AvailableParticipantIDs,
			}, nil
		}
	}

	return nil, domain.NewNotFoundError(
		fmt.Sprintf("no fully available slot within %d days", nextAvailableHorizonDays))
}

// scoreCandidate applies the scoring model: base availability percentage,
// an all-available bonus, time-of-day and weekday adjustments, clamped to
// [0, 100].
func (s *SchedulerService) scoreCandidate(start time.Time, summary *models.AvailabilitySummary) float64 {
	score := summary.AvailabilityPercentage()

	if summary.AllAvailable() {
		score += 10
	}

	hour := start.Hour()
	switch {
	case hour >= 10 && hour < 12:
		score += 5
	case hour >= 14 && hour < 16:
		score += 3
	case hour < 9 || hour >= 16:
		score -= 5
	}

	switch start.Weekday() {
	case time.Tuesday, time.Wednesday, time.Thursday:
		score += 2
	case time.Monday:
		if hour < 11 {
			score -= 3
		}
	case time.Friday:
		if hour >= 15 {
			score -= 3
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// justify derives the natural-language explanation from the score band and
// the availability counts.
func (s *SchedulerService) justify(slot *models.RankedSlot, total int) string {
	available := len(slot.AvailableParticipantIDs)

	var availability string
	if slot.AllAvailable {
		availability = fmt.Sprintf("all %d attendees are available", total)
	} else {
		availability = fmt.Sprintf("%d of %d attendees are available", available, total)
	}

	switch {
	case slot.Score >= 90:
		return fmt.Sprintf("Excellent time: %s and the hour suits typical working patterns.", availability)
	case slot.Score >= 70:
		return fmt.Sprintf("Good time: %s.", availability)
	case slot.Score >= 50:
		return fmt.Sprintf("Workable time: %s, though the hour is less convenient.", availability)
	default:
		return fmt.Sprintf("Difficult time: only %s.", availability)
	}
}

// slotUID derives a stable identifier from the slot's window, keeping
// FindOptimalTimes idempotent for identical inputs.
func slotUID(start, end time.Time) string {
	name := start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// withinWorkingHours reports whether the candidate fits entirely inside the
// policy's working window on a single working day. Fitting inside one day's
// hours also guarantees the slot never spans two calendar dates.
func (s *SchedulerService) withinWorkingHours(start, end time.Time) bool {
	policy := s.Config.WorkingHours
	if !policy.WorkingDay(start.Weekday()) {
		return false
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), policy.StartHour, 0, 0, 0, start.Location())
	dayEnd := time.Date(start.Year(), start.Month(), start.Day(), policy.EndHour, 0, 0, 0, start.Location())
	return !start.Before(dayStart) && !end.After(dayEnd)
}

// alignToStep rounds up to the next candidate grid boundary.
func (s *SchedulerService) alignToStep(t time.Time) time.Time {
	step := candidateStepMinutes * time.Minute
	aligned := t.Truncate(step)
	if aligned.Before(t) {
		aligned = aligned.Add(step)
	}
	return aligned
}

func (s *SchedulerService) validateSearch(attendeeIDs []string, durationMinutes int, window models.TimeWindow) error {
	if len(attendeeIDs) == 0 {
		return domain.NewValidationError("at least one attendee is required")
	}
	if durationMinutes <= 0 {
		return domain.NewValidationError(fmt.Sprintf("duration must be positive, got %d", durationMinutes))
	}
	if !window.IsValid() {
		return domain.NewValidationError("search window start must be before its end")
	}
	return nil
}
