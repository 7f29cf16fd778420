// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package ics renders event definitions and confirmed booking slots as
// iCalendar documents so callers can hand them to mail or calendar layers.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// ICS constants for consistent values across all generated ICS files
const (
	ICSProdID         = "-//Linux Foundation//LFX Availability Service//EN"
	ICALVersion       = "2.0"
	ICALScale         = "GREGORIAN"
	ICALMaxLineLength = 75 // per RFC5545 line folding

	icsTimeLayout = "20060102T150405Z"
	icsDateLayout = "20060102"
)

// UTF-8 byte masks for line folding safety
const (
	UTF8TwoBitMask         = 0xC0 // Mask to isolate first two bits (11000000)
	UTF8ContinuationPrefix = 0x80 // UTF-8 continuation byte prefix (10000000)
)

// CalendarGenerator is the interface for rendering ICS calendar documents.
type CalendarGenerator interface {
	GenerateEventICS(params EventICSParams) (string, error)
	GenerateBookingICS(params BookingICSParams) (string, error)
}

// Generator renders ICS (iCalendar) documents.
type Generator struct{}

// NewGenerator creates a new ICS generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Ensure [Generator] implements [CalendarGenerator]
var _ CalendarGenerator = (*Generator)(nil)

// EventICSParams contains the information needed to render an event
// definition, including its recurrence rule, as a VEVENT.
type EventICSParams struct {
	Event *models.EventDefinition
	// CancelledOccurrenceTimes are excluded from the series via EXDATE.
	CancelledOccurrenceTimes []time.Time
	OrganizerName            string
	OrganizerEmail           string
	Sequence                 int
	// Now stamps DTSTAMP; injected so rendering is reproducible.
	Now time.Time
}

// GenerateEventICS renders one event definition as a VCALENDAR document.
// Recurring definitions carry an RRULE line derived from their rule.
func (g *Generator) GenerateEventICS(params EventICSParams) (string, error) {
	event := params.Event
	if event == nil {
		return "", domain.NewValidationError("event definition is required")
	}
	if !event.StartTime.Before(event.EndTime) {
		return "", domain.NewValidationError("event start must be before event end")
	}

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString(fmt.Sprintf("VERSION:%s\r\n", ICALVersion))
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", ICSProdID))
	ics.WriteString(fmt.Sprintf("CALSCALE:%s\r\n", ICALScale))
	ics.WriteString("METHOD:PUBLISH\r\n")

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", event.UID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", params.Now.UTC().Format(icsTimeLayout)))
	if params.OrganizerEmail != "" {
		ics.WriteString(fmt.Sprintf("ORGANIZER;CN=%s:mailto:%s\r\n", params.OrganizerName, params.OrganizerEmail))
	}

	if event.AllDay {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", event.StartTime.UTC().Format(icsDateLayout)))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", event.EndTime.UTC().Format(icsDateLayout)))
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", event.StartTime.UTC().Format(icsTimeLayout)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", event.EndTime.UTC().Format(icsTimeLayout)))
	}

	if event.IsRecurring() {
		rule, err := recurrenceRRule(event)
		if err != nil {
			return "", err
		}
		ics.WriteString(fmt.Sprintf("RRULE:%s\r\n", rule))

		if len(params.CancelledOccurrenceTimes) > 0 {
			exdates := make([]string, 0, len(params.CancelledOccurrenceTimes))
			for _, cancelled := range params.CancelledOccurrenceTimes {
				exdates = append(exdates, cancelled.UTC().Format(icsTimeLayout))
			}
			ics.WriteString(fmt.Sprintf("EXDATE:%s\r\n", strings.Join(exdates, ",")))
		}
	}

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICSText(event.Title)))
	if event.Description != "" {
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICSText(event.Description)))
	}
	if event.Private {
		ics.WriteString("CLASS:PRIVATE\r\n")
	} else {
		ics.WriteString("CLASS:PUBLIC\r\n")
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString(fmt.Sprintf("SEQUENCE:%d\r\n", params.Sequence))
	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String(), nil
}

// BookingICSParams contains the information needed to render a confirmed
// booking slot as a meeting request.
type BookingICSParams struct {
	Slot           models.CandidateSlot
	Title          string
	Description    string
	OrganizerName  string
	OrganizerEmail string
	AttendeeEmails []string
	Sequence       int
	Now            time.Time
}

// GenerateBookingICS renders a confirmed booking slot as a VCALENDAR
// request. The UID is derived from the slot window so regenerating the same
// booking yields the same document.
func (g *Generator) GenerateBookingICS(params BookingICSParams) (string, error) {
	if !params.Slot.Window().IsValid() {
		return "", domain.NewValidationError("slot start must be before its end")
	}

	name := params.Slot.StartTime.UTC().Format(icsTimeLayout) + "/" + params.Slot.EndTime.UTC().Format(icsTimeLayout)
	uid := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString(fmt.Sprintf("VERSION:%s\r\n", ICALVersion))
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", ICSProdID))
	ics.WriteString(fmt.Sprintf("CALSCALE:%s\r\n", ICALScale))
	ics.WriteString("METHOD:REQUEST\r\n")

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", uid))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", params.Now.UTC().Format(icsTimeLayout)))
	if params.OrganizerEmail != "" {
		ics.WriteString(fmt.Sprintf("ORGANIZER;CN=%s:mailto:%s\r\n", params.OrganizerName, params.OrganizerEmail))
	}
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", params.Slot.StartTime.UTC().Format(icsTimeLayout)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", params.Slot.EndTime.UTC().Format(icsTimeLayout)))
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICSText(params.Title)))
	if params.Description != "" {
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICSText(params.Description)))
	}

	for _, email := range params.AttendeeEmails {
		ics.WriteString(fmt.Sprintf("ATTENDEE;CUTYPE=INDIVIDUAL;ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION;RSVP=TRUE;CN=%s:mailto:%s\r\n",
			email, email))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString(fmt.Sprintf("SEQUENCE:%d\r\n", params.Sequence))
	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String(), nil
}

// recurrenceRRule converts the engine's recurrence rule into an RFC5545
// RRULE value.
func recurrenceRRule(event *models.EventDefinition) (string, error) {
	rule := event.Recurrence

	option := rrule.ROption{Interval: rule.Interval}

	switch rule.Pattern {
	case models.RecurrenceDaily:
		option.Freq = rrule.DAILY
	case models.RecurrenceWeekly:
		option.Freq = rrule.WEEKLY
		for _, day := range rule.WeeklyDays {
			option.Byweekday = append(option.Byweekday, rruleWeekday(day))
		}
	case models.RecurrenceMonthly:
		option.Freq = rrule.MONTHLY
		option.Bymonthday = []int{event.StartTime.Day()}
	case models.RecurrenceYearly:
		option.Freq = rrule.YEARLY
	default:
		return "", domain.NewValidationError(fmt.Sprintf("unsupported recurrence pattern %q", rule.Pattern))
	}

	switch rule.End.Type {
	case models.RecurrenceEndCount:
		option.Count = rule.End.Count
	case models.RecurrenceEndUntil:
		if rule.End.Until != nil {
			option.Until = rule.End.Until.UTC()
		}
	}

	// Validate through rrule-go before serializing.
	if _, err := rrule.NewRRule(option); err != nil {
		return "", domain.NewValidationError("invalid recurrence rule", err)
	}

	return option.RRuleString(), nil
}

// rruleWeekday maps a Go weekday onto the RFC5545 weekday constants.
func rruleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// escapeICSText escapes special characters in ICS text fields
func escapeICSText(text string) string {
	// Escape special characters according to RFC5545
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")

	// Fold long lines (75 characters max per line, continued lines start with space)
	return foldICSLine(text, ICALMaxLineLength)
}

// foldICSLine folds long lines according to RFC5545 (75 octets max)
func foldICSLine(line string, maxLength int) string {
	if len(line) <= maxLength {
		return line
	}

	var folded strings.Builder
	remaining := line
	first := true

	for len(remaining) > 0 {
		cutLength := maxLength
		if !first {
			cutLength = maxLength - 1 // Account for leading space on continued lines
		}

		if len(remaining) <= cutLength {
			if !first {
				folded.WriteString("\r\n ")
			}
			folded.WriteString(remaining)
			break
		}

		// Find a safe place to break (not in the middle of a UTF-8 sequence)
		breakPoint := cutLength
		for breakPoint > 0 && remaining[breakPoint-1]&UTF8TwoBitMask == UTF8ContinuationPrefix {
			breakPoint--
		}

		if !first {
			folded.WriteString("\r\n ")
		}
		folded.WriteString(remaining[:breakPoint])
		remaining = remaining[breakPoint:]
		first = false
	}

	return folded.String()
}
