// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

func newTestSchedulerService(config SchedulerConfig) (*SchedulerService, *domain.MockEventSource) {
	eventSource := &domain.MockEventSource{}
	oracle := &domain.MockPermissionOracle{}
	busyTime := NewBusyTimeService(eventSource, oracle, NewOccurrenceService())
	availability := NewAvailabilityService(busyTime, oracle, models.AvailabilityPolicy{})
	return NewSchedulerService(availability, config), eventSource
}

func TestSchedulerService_FindOptimalTimes(t *testing.T) {
	ctx := context.Background()
	noEvents := []*models.EventDefinition{}

	// Tuesday morning.
	window := models.NewTimeWindow(
		time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
	)

	t.Run("the fully available slot ranks first", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, "a", mock.Anything).Return(noEvents, nil)
		eventSource.On("GetEvents", mock.Anything, "b", mock.Anything).Return([]*models.EventDefinition{
			{
				UID:       "b-blocker",
				OwnerID:   "b",
				Title:     "Blocker",
				StartTime: time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
			},
		}, nil)

		result, err := service.FindOptimalTimes(ctx, []string{"a", "b"}, 60, window, 3)
		require.NoError(t, err)
		require.Len(t, result.Slots, 3)
		assert.Equal(t, 5, result.Evaluated)
		assert.False(t, result.Truncated)

		best := result.Slots[0]
		assert.Equal(t, 1, best.Rank)
		assert.True(t, best.StartTime.Equal(time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)))
		assert.True(t, best.AllAvailable)
		assert.Equal(t, []string{"a", "b"}, best.AvailableParticipantIDs)
		assert.NotEmpty(t, best.Justification)

		for i, slot := range result.Slots {
			assert.Equal(t, i+1, slot.Rank)
			assert.GreaterOrEqual(t, slot.Score, 0.0)
			assert.LessOrEqual(t, slot.Score, 100.0)
			if i > 0 {
				assert.GreaterOrEqual(t, result.Slots[i-1].Score, slot.Score)
			}
		}
	})

	t.Run("the event source is read once per attendee", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, mock.Anything, mock.Anything).Return(noEvents, nil)

		result, err := service.FindOptimalTimes(ctx, []string{"a", "b", "c"}, 30, window, 10)
		require.NoError(t, err)
		require.Greater(t, result.Evaluated, 1)

		// Candidates are scored against one snapshot, not re-fetched.
		eventSource.AssertNumberOfCalls(t, "GetEvents", 3)
		for _, attendee := range []string{"a", "b", "c"} {
			eventSource.AssertCalled(t, "GetEvents", mock.Anything, attendee, mock.Anything)
		}
	})

	t.Run("identical inputs produce identical suggestions", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, mock.Anything, mock.Anything).Return(noEvents, nil)

		first, err := service.FindOptimalTimes(ctx, []string{"a", "b"}, 30, window, 5)
		require.NoError(t, err)
		second, err := service.FindOptimalTimes(ctx, []string{"a", "b"}, 30, window, 5)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		for _, slot := range first.Slots {
			assert.NotEmpty(t, slot.UID)
		}
	})

	t.Run("candidates stay inside working hours", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, mock.Anything, mock.Anything).Return(noEvents, nil)

		// Friday afternoon through Monday morning.
		weekend := models.NewTimeWindow(
			time.Date(2024, 6, 7, 16, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
		)

		result, err := service.FindOptimalTimes(ctx, []string{"a"}, 30, weekend, 10)
		require.NoError(t, err)
		require.NotEmpty(t, result.Slots)
		for _, slot := range result.Slots {
			day := slot.StartTime.Weekday()
			assert.NotEqual(t, time.Saturday, day)
			assert.NotEqual(t, time.Sunday, day)
			assert.GreaterOrEqual(t, slot.StartTime.Hour(), 9)
			assert.LessOrEqual(t, slot.EndTime.Hour(), 17)
		}
	})

	t.Run("exhausting the candidate budget flags truncation", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{MaxCandidates: 3})
		eventSource.On("GetEvents", mock.Anything, mock.Anything, mock.Anything).Return(noEvents, nil)

		wide := models.NewTimeWindow(
			time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		)

		result, err := service.FindOptimalTimes(ctx, []string{"a"}, 30, wide, 10)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.Equal(t, 3, result.Evaluated)
		assert.Len(t, result.Slots, 3)
	})

	t.Run("validation failures", func(t *testing.T) {
		service, _ := newTestSchedulerService(SchedulerConfig{})

		_, err := service.FindOptimalTimes(ctx, nil, 30, window, 3)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))

		_, err = service.FindOptimalTimes(ctx, []string{"a"}, 0, window, 3)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))

		_, err = service.FindOptimalTimes(ctx, []string{"a"}, 30, models.NewTimeWindow(window.To, window.From), 3)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))

		_, err = service.FindOptimalTimes(ctx, []string{"a"}, 30, window, 0)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestSchedulerService_FindNextAvailableSlot(t *testing.T) {
	ctx := context.Background()
	noEvents := []*models.EventDefinition{}

	t.Run("skips the weekend to the first free working slot", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, mock.Anything, mock.Anything).Return(noEvents, nil)

		// Saturday morning; the next working slot is Monday 09:00.
		from := time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)

		slot, err := service.FindNextAvailableSlot(ctx, []string{"a", "b"}, 30, from)
		require.NoError(t, err)
		assert.True(t, slot.StartTime.Equal(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)))
		assert.Equal(t, []string{"a", "b"}, slot.AvailableParticipantIDs)
	})

	t.Run("steps past a busy attendee's blocker", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		eventSource.On("GetEvents", mock.Anything, "a", mock.Anything).Return(noEvents, nil)
		eventSource.On("GetEvents", mock.Anything, "b", mock.Anything).Return([]*models.EventDefinition{
			{
				UID:       "b-morning",
				OwnerID:   "b",
				Title:     "Morning hold",
				StartTime: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
			},
		}, nil)

		from := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

		slot, err := service.FindNextAvailableSlot(ctx, []string{"a", "b"}, 30, from)
		require.NoError(t, err)
		assert.True(t, slot.StartTime.Equal(time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)))
		eventSource.AssertNumberOfCalls(t, "GetEvents", 2)
	})

	t.Run("no free slot within the horizon is not found", func(t *testing.T) {
		service, eventSource := newTestSchedulerService(SchedulerConfig{})
		// A daily all-working-hours series keeps the attendee busy for the
		// whole horizon.
		eventSource.On("GetEvents", mock.Anything, "a", mock.Anything).Return([]*models.EventDefinition{
			{
				UID:       "a-wall",
				OwnerID:   "a",
				Title:     "Offsite",
				StartTime: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 6, 3, 17, 0, 0, 0, time.UTC),
				Recurrence: &models.RecurrenceRule{
					Pattern:  models.RecurrenceDaily,
					Interval: 1,
				},
			},
		}, nil)

		from := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

		_, err := service.FindNextAvailableSlot(ctx, []string{"a"}, 30, from)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})
}

func TestSchedulerService_ScoreCandidate(t *testing.T) {
	service, _ := newTestSchedulerService(SchedulerConfig{})

	allFree := &models.AvailabilitySummary{TotalCount: 2, AvailableCount: 2}
	halfFree := &models.AvailabilitySummary{TotalCount: 2, AvailableCount: 1, BusyCount: 1}

	tuesdayAt := func(hour int) time.Time {
		return time.Date(2024, 6, 4, hour, 0, 0, 0, time.UTC)
	}

	t.Run("score never leaves its bounds", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			score := service.scoreCandidate(tuesdayAt(hour), allFree)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	})

	t.Run("mid-morning beats early morning", func(t *testing.T) {
		assert.Greater(t,
			service.scoreCandidate(tuesdayAt(10), halfFree),
			service.scoreCandidate(tuesdayAt(8), halfFree),
		)
	})

	t.Run("full availability beats partial", func(t *testing.T) {
		assert.Greater(t,
			service.scoreCandidate(tuesdayAt(10), allFree),
			service.scoreCandidate(tuesdayAt(10), halfFree),
		)
	})

	t.Run("early monday is penalized against mid-week", func(t *testing.T) {
		monday := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
		wednesday := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)
		assert.Greater(t,
			service.scoreCandidate(wednesday, halfFree),
			service.scoreCandidate(monday, halfFree),
		)
	})

	t.Run("late friday is penalized", func(t *testing.T) {
		friday := time.Date(2024, 6, 7, 16, 30, 0, 0, time.UTC)
		tuesday := time.Date(2024, 6, 4, 16, 30, 0, 0, time.UTC)
		assert.Greater(t,
			service.scoreCandidate(tuesday, halfFree),
			service.scoreCandidate(friday, halfFree),
		)
	})
}
