// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// TimeWindow is a half-open interval [From, To). All interval comparisons in
// the engine use half-open semantics: windows that only touch at an endpoint
// do not overlap.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewTimeWindow builds a window from two instants.
func NewTimeWindow(from, to time.Time) TimeWindow {
	return TimeWindow{From: from, To: to}
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.To.Sub(w.From)
}

// IsValid reports whether the window is non-empty.
func (w TimeWindow) IsValid() bool {
	return w.From.Before(w.To)
}

// Overlaps reports whether two half-open windows intersect. Touching
// endpoints are not an overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.From.Before(other.To) && w.To.After(other.From)
}

// Contains reports whether t lies inside the half-open window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Expand widens the window by the given buffers on each side. Negative
// buffers are treated as zero.
func (w TimeWindow) Expand(before, after time.Duration) TimeWindow {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	return TimeWindow{From: w.From.Add(-before), To: w.To.Add(after)}
}
