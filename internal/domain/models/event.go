// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// RecurrencePattern identifies the recurrence pattern of an event definition.
type RecurrencePattern int

const (
	// RecurrenceNone means the event occurs exactly once.
	RecurrenceNone RecurrencePattern = iota
	// RecurrenceDaily repeats every Interval days.
	RecurrenceDaily
	// RecurrenceWeekly repeats every Interval weeks on the configured weekdays.
	RecurrenceWeekly
	// RecurrenceMonthly repeats every Interval months on the anchor day of month.
	RecurrenceMonthly
	// RecurrenceYearly repeats every Interval years on the anchor month and day.
	RecurrenceYearly
)

// String returns the lowercase name of the pattern.
func (p RecurrencePattern) String() string {
	switch p {
	case RecurrenceNone:
		return "none"
	case RecurrenceDaily:
		return "daily"
	case RecurrenceWeekly:
		return "weekly"
	case RecurrenceMonthly:
		return "monthly"
	case RecurrenceYearly:
		return "yearly"
	}
	return "unknown"
}

// RecurrenceEndType identifies how a recurrence series terminates.
type RecurrenceEndType int

const (
	// RecurrenceEndNever means the series has no end condition of its own.
	// Expansion is still bounded by the query window and the hard safety cap.
	RecurrenceEndNever RecurrenceEndType = iota
	// RecurrenceEndCount terminates the series after Count occurrences.
	RecurrenceEndCount
	// RecurrenceEndUntil terminates the series at the Until date (exclusive).
	RecurrenceEndUntil
)

// RecurrenceEnd is the end condition of a recurrence series.
type RecurrenceEnd struct {
	Type  RecurrenceEndType `json:"type"`
	Count int               `json:"count,omitempty"`
	Until *time.Time        `json:"until,omitempty"`
}

// RecurrenceRule describes how an event definition repeats. The payload
// fields are pattern-dependent: WeeklyDays is only meaningful for weekly
// rules and is ignored for every other pattern.
type RecurrenceRule struct {
	Pattern    RecurrencePattern `json:"pattern"`
	Interval   int               `json:"interval"`
	WeeklyDays []time.Weekday    `json:"weekly_days,omitempty"`
	End        RecurrenceEnd     `json:"end"`
}

// EventDefinition is a stored calendar event as provided by the event source.
// Exception events reference a parent series via ParentEventUID and either
// cancel or replace the occurrence identified by ExceptionDate.
type EventDefinition struct {
	UID            string          `json:"uid"`
	OwnerID        string          `json:"owner_id"`
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	AllDay         bool            `json:"all_day"`
	Recurrence     *RecurrenceRule `json:"recurrence,omitempty"`
	ParentEventUID string          `json:"parent_event_uid,omitempty"`
	IsException    bool            `json:"is_exception"`
	ExceptionDate  *time.Time      `json:"exception_date,omitempty"`
	Cancelled      bool            `json:"cancelled"`
	Private        bool            `json:"private"`
}

// Duration returns the literal duration of the event definition.
func (e *EventDefinition) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// IsRecurring reports whether the definition describes a repeating series.
func (e *EventDefinition) IsRecurring() bool {
	return e.Recurrence != nil && e.Recurrence.Pattern != RecurrenceNone
}

// Occurrence is one concrete materialization of an event definition for a
// specific date. Occurrences are never persisted; they are derived on demand
// for a query window and treated as read-only values downstream.
type Occurrence struct {
	OccurrenceID    string    `json:"occurrence_id"`
	SourceEventUID  string    `json:"source_event_uid"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AllDay          bool      `json:"all_day"`
	IsException     bool      `json:"is_exception"`
	NormalizedToUTC bool      `json:"normalized_to_utc,omitempty"`
}
