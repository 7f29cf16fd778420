// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// SchedulingConstraints are the booking-policy knobs applied when generating
// and validating candidate slots. A zero MaxBookingsPerDay means no cap.
type SchedulingConstraints struct {
	MinNoticeMinutes       int `json:"min_notice_minutes"`
	MaxAdvanceDays         int `json:"max_advance_days"`
	BufferBeforeMinutes    int `json:"buffer_before_minutes"`
	BufferAfterMinutes     int `json:"buffer_after_minutes"`
	SlotGranularityMinutes int `json:"slot_granularity_minutes"`
	MaxBookingsPerDay      int `json:"max_bookings_per_day,omitempty"`
}

// BufferBefore returns the leading buffer as a duration.
func (c *SchedulingConstraints) BufferBefore() time.Duration {
	return time.Duration(c.BufferBeforeMinutes) * time.Minute
}

// BufferAfter returns the trailing buffer as a duration.
func (c *SchedulingConstraints) BufferAfter() time.Duration {
	return time.Duration(c.BufferAfterMinutes) * time.Minute
}

// BookingPageConfig describes the owner's recurring daily availability
// window for a booking page. DailyStartMinute and DailyEndMinute are minutes
// from midnight in the page's timezone.
type BookingPageConfig struct {
	EnabledDays         []time.Weekday        `json:"enabled_days"`
	DailyStartMinute    int                   `json:"daily_start_minute"`
	DailyEndMinute      int                   `json:"daily_end_minute"`
	SlotDurationMinutes int                   `json:"slot_duration_minutes"`
	Timezone            string                `json:"timezone,omitempty"`
	Constraints         SchedulingConstraints `json:"constraints"`
}

// DayEnabled reports whether the booking page accepts bookings on the given
// weekday.
func (c *BookingPageConfig) DayEnabled(day time.Weekday) bool {
	for _, d := range c.EnabledDays {
		if d == day {
			return true
		}
	}
	return false
}

// WorkingHoursPolicy restricts optimizer candidates to working days and a
// time-of-day range. StartHour is inclusive, EndHour exclusive.
type WorkingHoursPolicy struct {
	Weekdays  []time.Weekday `json:"weekdays"`
	StartHour int            `json:"start_hour"`
	EndHour   int            `json:"end_hour"`
}

// DefaultWorkingHours is Monday through Friday, 09:00-17:00.
func DefaultWorkingHours() WorkingHoursPolicy {
	return WorkingHoursPolicy{
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		StartHour: 9,
		EndHour:   17,
	}
}

// WorkingDay reports whether the policy allows candidates on the given
// weekday.
func (p *WorkingHoursPolicy) WorkingDay(day time.Weekday) bool {
	for _, d := range p.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// AvailabilityPolicy controls how participants the requester cannot view are
// treated during multi-party analysis. By default they are excluded from
// scoring and reported in UnknownParticipantIDs; with CountUnknownAsBusy set
// they are counted as busy instead.
type AvailabilityPolicy struct {
	CountUnknownAsBusy bool `json:"count_unknown_as_busy"`
}

// CandidateSlot is a proposed meeting time under evaluation, with the
// per-participant availability breakdown for its window.
type CandidateSlot struct {
	StartTime               time.Time `json:"start_time"`
	EndTime                 time.Time `json:"end_time"`
	AvailableParticipantIDs []string  `json:"available_participant_ids,omitempty"`
	BusyParticipantIDs      []string  `json:"busy_participant_ids,omitempty"`
}

// Window returns the slot as a half-open time window.
func (s *CandidateSlot) Window() TimeWindow {
	return TimeWindow{From: s.StartTime, To: s.EndTime}
}

// RankedSlot is a scored and ranked candidate produced by the optimizer.
type RankedSlot struct {
	UID           string  `json:"uid"`
	Rank          int     `json:"rank"`
	Score         float64 `json:"score"`
	AllAvailable  bool    `json:"all_available"`
	Justification string  `json:"justification"`
	CandidateSlot
}

// AvailabilitySummary is the result of intersecting availability across
// participants for a candidate window. Conflicting carries the union of busy
// intervals that made participants busy, for explanation strings.
type AvailabilitySummary struct {
	Window                  TimeWindow     `json:"window"`
	TotalCount              int            `json:"total_count"`
	AvailableCount          int            `json:"available_count"`
	BusyCount               int            `json:"busy_count"`
	UnknownCount            int            `json:"unknown_count,omitempty"`
	AvailableParticipantIDs []string       `json:"available_participant_ids,omitempty"`
	BusyParticipantIDs      []string       `json:"busy_participant_ids,omitempty"`
	UnknownParticipantIDs   []string       `json:"unknown_participant_ids,omitempty"`
	Conflicting             []BusyInterval `json:"conflicting,omitempty"`
}

// AllAvailable reports whether every scored participant is free.
func (s *AvailabilitySummary) AllAvailable() bool {
	return s.TotalCount > 0 && s.AvailableCount == s.TotalCount
}

// AvailabilityPercentage returns available/total expressed 0-100. A summary
// with no scored participants has zero availability.
func (s *AvailabilitySummary) AvailabilityPercentage() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.AvailableCount) / float64(s.TotalCount) * 100
}

// SuggestionResult is the ranked output of an optimal-time search. Truncated
// is set when the search stopped at its candidate budget before covering the
// whole window; a truncated result is valid but may miss later candidates.
type SuggestionResult struct {
	Slots     []RankedSlot `json:"slots"`
	Evaluated int          `json:"evaluated"`
	Truncated bool         `json:"truncated"`
}
