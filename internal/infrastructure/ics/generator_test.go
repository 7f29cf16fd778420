// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/utils"
)

func TestGenerator_GenerateEventICS(t *testing.T) {
	generator := NewGenerator()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	startTime := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	t.Run("basic event without recurrence", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:         "event-123",
				OwnerID:     "alice",
				Title:       "Team Standup",
				Description: "Daily team sync",
				StartTime:   startTime,
				EndTime:     startTime.Add(15 * time.Minute),
			},
			OrganizerName:  "Alice",
			OrganizerEmail: "alice@example.org",
			Now:            now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "BEGIN:VCALENDAR")
		assert.Contains(t, ics, "END:VCALENDAR")
		assert.Contains(t, ics, "METHOD:PUBLISH")
		assert.Contains(t, ics, "UID:event-123")
		assert.Contains(t, ics, "DTSTAMP:20240601T120000Z")
		assert.Contains(t, ics, "DTSTART:20240603T090000Z")
		assert.Contains(t, ics, "DTEND:20240603T091500Z")
		assert.Contains(t, ics, "SUMMARY:Team Standup")
		assert.Contains(t, ics, "DESCRIPTION:Daily team sync")
		assert.Contains(t, ics, "ORGANIZER;CN=Alice:mailto:alice@example.org")
		assert.Contains(t, ics, "CLASS:PUBLIC")
		assert.NotContains(t, ics, "RRULE")
	})

	t.Run("weekly recurrence carries an RRULE", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-weekly",
				Title:     "Standup",
				StartTime: startTime,
				EndTime:   startTime.Add(15 * time.Minute),
				Recurrence: &models.RecurrenceRule{
					Pattern:    models.RecurrenceWeekly,
					Interval:   1,
					WeeklyDays: []time.Weekday{time.Monday, time.Wednesday},
					End:        models.RecurrenceEnd{Type: models.RecurrenceEndCount, Count: 10},
				},
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "RRULE:")
		assert.Contains(t, ics, "FREQ=WEEKLY")
		assert.Contains(t, ics, "MO,WE")
		assert.Contains(t, ics, "COUNT=10")
	})

	t.Run("monthly recurrence pins the day of month", func(t *testing.T) {
		monthStart := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-monthly",
				Title:     "Invoice day",
				StartTime: monthStart,
				EndTime:   monthStart.Add(time.Hour),
				Recurrence: &models.RecurrenceRule{
					Pattern:  models.RecurrenceMonthly,
					Interval: 1,
					End: models.RecurrenceEnd{
						Type:  models.RecurrenceEndUntil,
						Until: utils.TimePtr(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
					},
				},
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "FREQ=MONTHLY")
		assert.Contains(t, ics, "BYMONTHDAY=31")
		assert.Contains(t, ics, "UNTIL=")
	})

	t.Run("cancelled occurrences become EXDATE entries", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-exdate",
				Title:     "Standup",
				StartTime: startTime,
				EndTime:   startTime.Add(15 * time.Minute),
				Recurrence: &models.RecurrenceRule{
					Pattern:  models.RecurrenceDaily,
					Interval: 1,
				},
			},
			CancelledOccurrenceTimes: []time.Time{
				time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC),
				time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC),
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "EXDATE:20240605T090000Z,20240607T090000Z")
	})

	t.Run("all-day event uses date values", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-allday",
				Title:     "Offsite",
				AllDay:    true,
				StartTime: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240603")
		assert.Contains(t, ics, "DTEND;VALUE=DATE:20240604")
	})

	t.Run("private event is classified private", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-private",
				Title:     "Therapy",
				Private:   true,
				StartTime: startTime,
				EndTime:   startTime.Add(time.Hour),
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "CLASS:PRIVATE")
	})

	t.Run("special characters are escaped", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-escape",
				Title:     "Planning; Q3, part 1",
				StartTime: startTime,
				EndTime:   startTime.Add(time.Hour),
			},
			Now: now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, `SUMMARY:Planning\; Q3\, part 1`)
	})

	t.Run("lines end with CRLF", func(t *testing.T) {
		ics, err := generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-crlf",
				Title:     "Standup",
				StartTime: startTime,
				EndTime:   startTime.Add(time.Hour),
			},
			Now: now,
		})

		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n") {
			assert.NotContains(t, line, "\n")
		}
		assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	})

	t.Run("validation failures", func(t *testing.T) {
		_, err := generator.GenerateEventICS(EventICSParams{Now: now})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))

		_, err = generator.GenerateEventICS(EventICSParams{
			Event: &models.EventDefinition{
				UID:       "event-bad",
				StartTime: startTime,
				EndTime:   startTime,
			},
			Now: now,
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestGenerator_GenerateBookingICS(t *testing.T) {
	generator := NewGenerator()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	slot := models.CandidateSlot{
		StartTime: time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 4, 10, 30, 0, 0, time.UTC),
	}

	t.Run("booking request document", func(t *testing.T) {
		ics, err := generator.GenerateBookingICS(BookingICSParams{
			Slot:           slot,
			Title:          "Intro call",
			Description:    "30 minute introduction",
			OrganizerName:  "Alice",
			OrganizerEmail: "alice@example.org",
			AttendeeEmails: []string{"bob@example.org", "carol@example.org"},
			Now:            now,
		})

		require.NoError(t, err)
		assert.Contains(t, ics, "METHOD:REQUEST")
		assert.Contains(t, ics, "DTSTART:20240604T100000Z")
		assert.Contains(t, ics, "DTEND:20240604T103000Z")
		assert.Contains(t, ics, "SUMMARY:Intro call")
		assert.Contains(t, ics, "ATTENDEE;CUTYPE=INDIVIDUAL;ROLE=REQ-PARTICIPANT")
		assert.Contains(t, ics, "mailto:bob@example.org")
		assert.Contains(t, ics, "mailto:carol@example.org")
	})

	t.Run("regenerating the same booking yields the same document", func(t *testing.T) {
		params := BookingICSParams{
			Slot:  slot,
			Title: "Intro call",
			Now:   now,
		}

		first, err := generator.GenerateBookingICS(params)
		require.NoError(t, err)
		second, err := generator.GenerateBookingICS(params)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("invalid slot is rejected", func(t *testing.T) {
		_, err := generator.GenerateBookingICS(BookingICSParams{
			Slot: models.CandidateSlot{
				StartTime: slot.EndTime,
				EndTime:   slot.StartTime,
			},
			Now: now,
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}
