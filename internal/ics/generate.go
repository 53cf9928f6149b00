// Package ics generates the calendar-interchange documents users download
// to put selected festival slots into (or out of) their own calendars.
package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vfestimetable/internal/model"
)

// Mode selects between the "add to calendar" and the "cancel" document.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeCancel Mode = "cancel"
)

// Fixed file names for the downloadable artifacts.
const (
	FileNameEvents       = "sanrio-vfes-events.ics"
	FileNameCancelEvents = "sanrio-vfes-events-cancel.ics"
)

// MIMEType is the media type of a generated document.
const MIMEType = "text/calendar"

var (
	// ErrUnknownEvent is returned when a selection references an event id
	// absent from the catalog. No partial document is ever emitted.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrValidation is returned for an empty selection list or malformed
	// date/time fields.
	ErrValidation = errors.New("invalid calendar request")
)

const (
	prodID        = "-//sanrio-vfes-timetable-importer//JP"
	uidSuffix     = "sanrio-vfes-timetable-importer"
	detailBaseURL = "https://v-fes.sanrio.co.jp"

	stampLayout = "20060102T150405Z"
)

// Users pick times in JST; the event source has no daylight saving, so a
// fixed +9h offset is exact.
var jst = time.FixedZone("JST", 9*60*60)

// timeNow is swapped out in tests. The clock is read once per Generate
// call so every block in a document carries the same DTSTAMP.
var timeNow = time.Now

// Document is a generated calendar artifact plus its download file name.
type Document struct {
	Content  string
	FileName string
}

type resolvedEntry struct {
	event model.Event
	start time.Time
	end   time.Time
}

// Generate turns the given selections into a calendar document. In create
// mode the document requests the events; in cancel mode it cancels them,
// carrying identical UIDs so calendar clients can match the earlier add.
//
// Every selection is resolved and validated before any text is emitted.
func Generate(selections []model.SelectedSchedule, events []model.Event, mode Mode) (Document, error) {
	if len(selections) == 0 {
		return Document{}, fmt.Errorf("%w: no schedules selected", ErrValidation)
	}

	entries := make([]resolvedEntry, 0, len(selections))
	for _, sel := range selections {
		ev, ok := findEvent(events, sel.EventID)
		if !ok {
			return Document{}, fmt.Errorf("%w: %s", ErrUnknownEvent, sel.EventID)
		}
		if !sel.Slot.Date.Valid() || !sel.Slot.Time.Valid() {
			return Document{}, fmt.Errorf("%w: bad schedule %s %s", ErrValidation, sel.Slot.Date, sel.Slot.Time)
		}

		start := time.Date(
			sel.Slot.Date.Year, time.Month(sel.Slot.Date.Month), sel.Slot.Date.Day,
			sel.Slot.Time.Hour, sel.Slot.Time.Minute, 0, 0, jst,
		).UTC()

		entries = append(entries, resolvedEntry{
			event: ev,
			start: start,
			end:   start.Add(time.Duration(ev.TimeSlotMinutes) * time.Minute),
		})
	}

	stamp := timeNow().UTC().Format(stampLayout)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:" + mode.method(),
	}
	for _, e := range entries {
		lines = append(lines, eventBlock(e, mode, stamp)...)
	}
	lines = append(lines, "END:VCALENDAR")

	return Document{
		Content:  strings.Join(lines, "\n"),
		FileName: mode.fileName(),
	}, nil
}

func eventBlock(e resolvedEntry, mode Mode, stamp string) []string {
	startStr := e.start.Format(stampLayout)
	endStr := e.end.Format(stampLayout)
	uid := fmt.Sprintf("%s-%s_%s@%s", e.event.UID, startStr, endStr, uidSuffix)
	platforms := platformList(e.event.Platform)

	return []string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + stamp,
		mode.status(),
		fmt.Sprintf("SUMMARY:[サンリオVfes] %s [%s]", e.event.Title, platforms),
		"DTSTART:" + startStr,
		"DTEND:" + endStr,
		"DESCRIPTION:" + escapeText(description(e.event, platforms)),
		"TRANSP:OPAQUE",
		"END:VEVENT",
	}
}

func description(ev model.Event, platforms string) string {
	var b strings.Builder
	b.WriteString("サンリオVfes2025")
	b.WriteString("\nアーティスト名: " + ev.Title)
	if ev.Floor != "" {
		b.WriteString("\nフロア: " + ev.Floor)
	}
	if ev.LocationName != "" {
		b.WriteString(" " + ev.LocationName)
	}
	b.WriteString("\nプラットフォーム: " + platforms)
	if ev.Description != "" {
		b.WriteString("\n\n" + ev.Description)
	}
	if ev.Path != "" {
		b.WriteString("\n\n詳しくは: " + detailBaseURL + ev.Path)
	}
	return b.String()
}

func platformList(ps []model.Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func findEvent(events []model.Event, uid string) (model.Event, bool) {
	for _, ev := range events {
		if ev.UID == uid {
			return ev, true
		}
	}
	return model.Event{}, false
}

func (m Mode) method() string {
	if m == ModeCancel {
		return "CANCEL"
	}
	return "REQUEST"
}

func (m Mode) status() string {
	if m == ModeCancel {
		return "STATUS:CANCELLED"
	}
	return "STATUS:CONFIRMED"
}

func (m Mode) fileName() string {
	if m == ModeCancel {
		return FileNameCancelEvents
	}
	return FileNameEvents
}
