// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// EventSource fetches stored event definitions for an owner. The engine
// never persists events itself; all storage lives behind this interface.
// Implementations must return exception events alongside their parent series
// so that expansion can remove or replace cancelled occurrences.
type EventSource interface {
	// GetEvents returns the owner's event definitions intersecting the window,
	// including recurring series whose occurrences may fall inside it.
	GetEvents(ctx context.Context, ownerID string, window models.TimeWindow) ([]*models.EventDefinition, error)
}

// ViewPermission is the permission oracle's answer for one viewer/target pair.
type ViewPermission struct {
	// Allowed reports whether the requester may see the target's busy/free
	// state at all.
	Allowed bool
	// DetailVisible reports whether the requester may see event details, or
	// only redacted busy blocks.
	DetailVisible bool
}

// PermissionOracle decides what one user may see of another's calendar.
type PermissionOracle interface {
	CanView(ctx context.Context, targetUserID, requesterID string) (ViewPermission, error)
}

// Clock is an injected time capability. Engine computations never read the
// wall clock directly; "now" always arrives as an explicit parameter so
// results are reproducible.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the wall clock, for use at the edges of the system only.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// FixedClock returns a clock frozen at t, for tests and replays.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
