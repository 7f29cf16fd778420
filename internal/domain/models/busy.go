// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// RedactedDetail is the generic label shown in place of a private event's
// detail when the viewer is not the owner.
const RedactedDetail = "Busy"

// BusyInterval is a time range during which its owner is unavailable,
// attributed to the source event that produced it. Intervals are never
// merged so that conflict reports can name the contributing events.
type BusyInterval struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	OwnerID         string    `json:"owner_id"`
	SourceEventUID  string    `json:"source_event_uid"`
	Private         bool      `json:"private"`
	Detail          string    `json:"detail"`
	NormalizedToUTC bool      `json:"normalized_to_utc,omitempty"`
}

// Window returns the interval as a half-open time window.
func (b *BusyInterval) Window() TimeWindow {
	return TimeWindow{From: b.StartTime, To: b.EndTime}
}

// Redacted returns a copy of the interval with its detail replaced by the
// generic busy label. The interval itself is kept: its busy-ness is real
// regardless of who is looking.
func (b BusyInterval) Redacted() BusyInterval {
	b.Detail = RedactedDetail
	return b
}

// ConflictResult is the outcome of testing a candidate window against a set
// of busy intervals.
type ConflictResult struct {
	Conflict           bool           `json:"conflict"`
	ConflictingSources []string       `json:"conflicting_sources,omitempty"`
	Conflicting        []BusyInterval `json:"conflicting,omitempty"`
}
