// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

const (
	// maxPeriodIterations bounds the number of recurrence periods walked for
	// a single rule, regardless of the caller-supplied window.
	maxPeriodIterations = 1000

	// expansionSpanCap bounds how far past the query window expansion may
	// reach. Together with maxPeriodIterations it keeps degenerate rules
	// from consuming unbounded CPU.
	expansionSpanCap = 2 * 365 * 24 * time.Hour
)

// OccurrenceService implements the domain.OccurrenceExpander interface.
// Expansion is a pure function of its inputs; the service holds no state.
type OccurrenceService struct{}

// NewOccurrenceService creates a new OccurrenceService.
func NewOccurrenceService() *OccurrenceService {
	return &OccurrenceService{}
}

// ExpandRecurrence expands one event definition over a half-open query
// window [From, To). Occurrences are returned ordered by start time and
// deduplicated. Timestamps not already in UTC are normalized to UTC and the
// normalization is recorded on each produced occurrence.
func (s *OccurrenceService) ExpandRecurrence(event *models.EventDefinition, window models.TimeWindow) ([]models.Occurrence, error) {
	return s.ExpandWithExceptions(event, nil, window)
}

// ExpandWithExceptions expands a series and applies its exception events:
// cancelled occurrences are removed, rescheduled ones replaced with the
// exception's own times.
func (s *OccurrenceService) ExpandWithExceptions(event *models.EventDefinition, exceptions []*models.EventDefinition, window models.TimeWindow) ([]models.Occurrence, error) {
	if event == nil {
		return nil, domain.NewValidationError("event definition is required")
	}
	if !window.IsValid() {
		return nil, domain.NewValidationError("query window start must be before its end")
	}
	if err := s.validateEvent(event); err != nil {
		return nil, err
	}

	start, normalized := normalizeUTC(event.StartTime)
	end, _ := normalizeUTC(event.EndTime)
	window = models.TimeWindow{From: utc(window.From), To: utc(window.To)}

	// A cancelled standalone event contributes nothing.
	if event.Cancelled && !event.IsRecurring() {
		return []models.Occurrence{}, nil
	}

	if !event.IsRecurring() {
		literal := models.TimeWindow{From: start, To: end}
		if !literal.Overlaps(window) {
			return []models.Occurrence{}, nil
		}
		return []models.Occurrence{s.newOccurrence(event, start, end, normalized)}, nil
	}

	starts := s.expandStarts(event, start, window)

	duration := end.Sub(start)
	occurrences := make([]models.Occurrence, 0, len(starts))
	for _, occStart := range starts {
		var occEnd time.Time
		if event.AllDay {
			// Calendar-date arithmetic only; all-day events never use clock
			// offsets so they cannot drift across DST boundaries.
			days := daysBetween(start, end)
			occEnd = occStart.AddDate(0, 0, days)
		} else {
			occEnd = occStart.Add(duration)
		}
		if !(models.TimeWindow{From: occStart, To: occEnd}).Overlaps(window) {
			continue
		}
		occurrences = append(occurrences, s.newOccurrence(event, occStart, occEnd, normalized))
	}

	occurrences = s.applyExceptions(event, occurrences, exceptions, window)

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})

	return occurrences, nil
}

// SeriesEnd returns the end time of the final occurrence of the series, or
// nil when the series has no end of its own. A rule whose end condition is
// not reached within the expansion safety caps is treated as unbounded.
func (s *OccurrenceService) SeriesEnd(event *models.EventDefinition) *time.Time {
	if event == nil {
		return nil
	}
	if !event.IsRecurring() {
		end := utc(event.EndTime)
		return &end
	}
	if event.Recurrence.End.Type == models.RecurrenceEndNever {
		return nil
	}

	window := models.TimeWindow{
		From: utc(event.StartTime),
		To:   utc(event.StartTime).Add(expansionSpanCap),
	}
	if event.Recurrence.End.Type == models.RecurrenceEndUntil && event.Recurrence.End.Until != nil {
		window.To = utc(*event.Recurrence.End.Until).Add(24 * time.Hour)
	}

	occurrences, err := s.ExpandRecurrence(event, window)
	if err != nil || len(occurrences) == 0 {
		return nil
	}

	// A count condition not exhausted within the caps means the series is
	// effectively unbounded for our purposes.
	if event.Recurrence.End.Type == models.RecurrenceEndCount &&
		len(occurrences) < event.Recurrence.End.Count {
		return nil
	}

	last := occurrences[len(occurrences)-1].EndTime
	return &last
}

// expandStarts walks candidate period boundaries for the rule and returns
// the deduplicated occurrence start times, bounded by the rule's own end
// condition, the window, and the hard safety caps. Periods that end before
// the window are skipped arithmetically rather than walked, so an anchor
// far in the past cannot exhaust the iteration cap before the window is
// reached.
func (s *OccurrenceService) expandStarts(event *models.EventDefinition, seriesStart time.Time, window models.TimeWindow) []time.Time {
	rule := event.Recurrence

	capEnd := window.To.Add(expansionSpanCap)
	var until *time.Time
	if rule.End.Type == models.RecurrenceEndUntil && rule.End.Until != nil {
		u := utc(*rule.End.Until)
		until = &u
	}

	span := utc(event.EndTime).Sub(seriesStart)
	if event.AllDay {
		span = time.Duration(daysBetween(seriesStart, utc(event.EndTime))) * 24 * time.Hour
	}
	// Occurrences starting before this instant cannot reach the window.
	lowerBound := window.From.Add(-span)

	var starts []time.Time
	seen := make(map[int64]struct{})
	generated := 0

	// keep returns false when generation must stop for good.
	keep := func(candidate time.Time) bool {
		if candidate.Before(seriesStart) {
			return true
		}
		if until != nil && !candidate.Before(*until) {
			return false
		}
		generated++
		if _, dup := seen[candidate.UnixNano()]; !dup {
			seen[candidate.UnixNano()] = struct{}{}
			starts = append(starts, candidate)
		}
		return !(rule.End.Type == models.RecurrenceEndCount && generated >= rule.End.Count)
	}

	switch rule.Pattern {
	case models.RecurrenceDaily:
		skip := periodsBefore(seriesStart, lowerBound, time.Duration(rule.Interval)*24*time.Hour)
		generated = skip
		if rule.End.Type == models.RecurrenceEndCount && generated >= rule.End.Count {
			break
		}
		current := seriesStart.AddDate(0, 0, skip*rule.Interval)
		for i := 0; i < maxPeriodIterations; i++ {
			if !current.Before(window.To) || current.After(capEnd) {
				break
			}
			if !keep(current) {
				break
			}
			current = current.AddDate(0, 0, rule.Interval)
		}

	case models.RecurrenceWeekly:
		days := rule.WeeklyDays
		if len(days) == 0 {
			// No day set configured: repeat on the anchor's own weekday.
			days = []time.Weekday{seriesStart.Weekday()}
		}
		weekStart := startOfWeek(seriesStart)
		skip := periodsBefore(weekStart, lowerBound, time.Duration(rule.Interval)*7*24*time.Hour)
		if skip > 0 {
			// The anchor week can hold fewer occurrences than a full week.
			firstWeek := 0
			for _, candidate := range weekdayStarts(weekStart, days, seriesStart) {
				if !candidate.Before(seriesStart) {
					firstWeek++
				}
			}
			generated = firstWeek + (skip-1)*len(days)
			if rule.End.Type == models.RecurrenceEndCount && generated >= rule.End.Count {
				break
			}
		}
	weekly:
		for week := skip; week < skip+maxPeriodIterations; week++ {
			currentWeek := weekStart.AddDate(0, 0, week*7*rule.Interval)
			if !currentWeek.Before(window.To) || currentWeek.After(capEnd) {
				break
			}
			for _, candidate := range weekdayStarts(currentWeek, days, seriesStart) {
				if !candidate.Before(window.To) {
					continue
				}
				if !keep(candidate) {
					break weekly
				}
			}
		}

	case models.RecurrenceMonthly:
		anchorDay := seriesStart.Day()
		skip := monthPeriodsBefore(seriesStart, lowerBound, rule.Interval)
		generated = skip
		if rule.End.Type == models.RecurrenceEndCount && generated >= rule.End.Count {
			break
		}
		for month := skip; month < skip+maxPeriodIterations; month++ {
			candidate := monthlyStart(seriesStart, month*rule.Interval, anchorDay)
			if !candidate.Before(window.To) || candidate.After(capEnd) {
				break
			}
			if !keep(candidate) {
				break
			}
		}

	case models.RecurrenceYearly:
		skip := yearPeriodsBefore(seriesStart, lowerBound, rule.Interval)
		generated = skip
		if rule.End.Type == models.RecurrenceEndCount && generated >= rule.End.Count {
			break
		}
		for year := skip; year < skip+maxPeriodIterations; year++ {
			candidate := yearlyStart(seriesStart, year*rule.Interval)
			if !candidate.Before(window.To) || candidate.After(capEnd) {
				break
			}
			if !keep(candidate) {
				break
			}
		}
	}

	return starts
}

// applyExceptions removes cancelled occurrences and replaces rescheduled
// ones. An exception that does not match any generated occurrence but falls
// inside the window is included on its own, covering occurrences moved into
// the window from outside it.
func (s *OccurrenceService) applyExceptions(event *models.EventDefinition, occurrences []models.Occurrence, exceptions []*models.EventDefinition, window models.TimeWindow) []models.Occurrence {
	if len(exceptions) == 0 {
		return occurrences
	}

	result := occurrences[:0]
	matched := make(map[string]struct{})

	for _, occ := range occurrences {
		replaced := false
		for _, ex := range exceptions {
			if !s.exceptionApplies(event, ex) {
				continue
			}
			if !utc(*ex.ExceptionDate).Equal(occ.StartTime) {
				continue
			}
			matched[ex.UID] = struct{}{}
			if ex.Cancelled {
				replaced = true
				break
			}
			exStart, exNormalized := normalizeUTC(ex.StartTime)
			exEnd, _ := normalizeUTC(ex.EndTime)
			if (models.TimeWindow{From: exStart, To: exEnd}).Overlaps(window) {
				occ = s.newOccurrence(ex, exStart, exEnd, exNormalized)
				occ.IsException = true
			} else {
				replaced = true
			}
			break
		}
		if !replaced {
			result = append(result, occ)
		}
	}

	// Rescheduled occurrences whose original date was outside the window.
	for _, ex := range exceptions {
		if !s.exceptionApplies(event, ex) || ex.Cancelled {
			continue
		}
		if _, ok := matched[ex.UID]; ok {
			continue
		}
		exStart, exNormalized := normalizeUTC(ex.StartTime)
		exEnd, _ := normalizeUTC(ex.EndTime)
		if (models.TimeWindow{From: exStart, To: exEnd}).Overlaps(window) {
			occ := s.newOccurrence(ex, exStart, exEnd, exNormalized)
			occ.IsException = true
			result = append(result, occ)
		}
	}

	return result
}

func (s *OccurrenceService) exceptionApplies(event *models.EventDefinition, ex *models.EventDefinition) bool {
	return ex != nil && ex.IsException && ex.ExceptionDate != nil && ex.ParentEventUID == event.UID
}

// validateEvent fails fast on malformed definitions and rules before any
// expansion work begins.
func (s *OccurrenceService) validateEvent(event *models.EventDefinition) error {
	if !event.StartTime.Before(event.EndTime) {
		return domain.NewValidationError("event start must be before event end")
	}

	if !event.IsRecurring() {
		return nil
	}

	rule := event.Recurrence
	if rule.Interval < 1 {
		return domain.NewValidationError(fmt.Sprintf("recurrence interval must be at least 1, got %d", rule.Interval))
	}
	switch rule.End.Type {
	case models.RecurrenceEndCount:
		if rule.End.Count < 1 {
			return domain.NewValidationError(fmt.Sprintf("recurrence count must be at least 1, got %d", rule.End.Count))
		}
	case models.RecurrenceEndUntil:
		if rule.End.Until == nil {
			return domain.NewValidationError("recurrence until date is required for an until-terminated rule")
		}
		if rule.End.Until.Before(event.StartTime) {
			return domain.NewValidationError("recurrence until date must not be before the event start")
		}
	}
	return nil
}

func (s *OccurrenceService) newOccurrence(event *models.EventDefinition, start, end time.Time, normalized bool) models.Occurrence {
	return models.Occurrence{
		OccurrenceID:    strconv.FormatInt(start.Unix(), 10),
		SourceEventUID:  event.UID,
		StartTime:       start,
		EndTime:         end,
		AllDay:          event.AllDay,
		IsException:     event.IsException,
		NormalizedToUTC: normalized,
	}
}

// Helper functions

// utc converts a timestamp to UTC.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// normalizeUTC converts to UTC and reports whether a conversion happened, so
// callers can record the normalization on their outputs.
func normalizeUTC(t time.Time) (time.Time, bool) {
	if t.Location() == time.UTC {
		return t, false
	}
	return t.UTC(), true
}

// startOfWeek gets the start of the week (Sunday) for a given date.
func startOfWeek(date time.Time) time.Time {
	return date.AddDate(0, 0, -int(date.Weekday()))
}

// periodsBefore counts fixed-length periods from anchor that lie entirely
// before bound. The count is kept one period short so boundary candidates
// are still visited by the walk.
func periodsBefore(anchor, bound time.Time, period time.Duration) int {
	if period <= 0 || !anchor.Before(bound) {
		return 0
	}
	n := int(bound.Sub(anchor)/period) - 1
	if n < 0 {
		n = 0
	}
	return n
}

// monthPeriodsBefore is periodsBefore for calendar-month periods.
func monthPeriodsBefore(anchor, bound time.Time, interval int) int {
	if interval <= 0 || !anchor.Before(bound) {
		return 0
	}
	months := (bound.Year()-anchor.Year())*12 + int(bound.Month()) - int(anchor.Month())
	n := months/interval - 1
	if n < 0 {
		n = 0
	}
	return n
}

// yearPeriodsBefore is periodsBefore for calendar-year periods.
func yearPeriodsBefore(anchor, bound time.Time, interval int) int {
	if interval <= 0 || !anchor.Before(bound) {
		return 0
	}
	n := (bound.Year()-anchor.Year())/interval - 1
	if n < 0 {
		n = 0
	}
	return n
}

// weekdayStarts returns the occurrence candidates for one week, in
// chronological order, preserving the anchor's time of day.
func weekdayStarts(weekStart time.Time, days []time.Weekday, anchor time.Time) []time.Time {
	offsets := make([]int, 0, len(days))
	for _, day := range days {
		offsets = append(offsets, (int(day)-int(weekStart.Weekday())+7)%7)
	}
	sort.Ints(offsets)

	starts := make([]time.Time, 0, len(offsets))
	for _, offset := range offsets {
		date := weekStart.AddDate(0, 0, offset)
		starts = append(starts, time.Date(
			date.Year(), date.Month(), date.Day(),
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
			anchor.Location(),
		))
	}
	return starts
}

// monthlyStart computes the occurrence start the given number of months past
// the anchor. A day of month absent from the target month is clamped to the
// month's last day.
func monthlyStart(anchor time.Time, monthsAhead, anchorDay int) time.Time {
	year := anchor.Year()
	month := int(anchor.Month()) + monthsAhead
	for month > 12 {
		year++
		month -= 12
	}

	day := clampDayOfMonth(year, time.Month(month), anchorDay, anchor.Location())
	return time.Date(
		year, time.Month(month), day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
		anchor.Location(),
	)
}

// yearlyStart computes the occurrence start the given number of years past
// the anchor, clamping Feb 29 anchors in non-leap years.
func yearlyStart(anchor time.Time, yearsAhead int) time.Time {
	year := anchor.Year() + yearsAhead
	day := clampDayOfMonth(year, anchor.Month(), anchor.Day(), anchor.Location())
	return time.Date(
		year, anchor.Month(), day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
		anchor.Location(),
	)
}

// clampDayOfMonth clamps day to the last valid day of the target month.
func clampDayOfMonth(year int, month time.Month, day int, loc *time.Location) int {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > lastDay {
		return lastDay
	}
	return day
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	aDate := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDate := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(bDate.Sub(aDate) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return days
}

// Compile-time interface check
var _ domain.OccurrenceExpander = (*OccurrenceService)(nil)
