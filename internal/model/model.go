package model

import "fmt"

// Platform identifies where an event can be attended.
type Platform string

const (
	PlatformPC      Platform = "PC"
	PlatformAndroid Platform = "Android"
)

// ValidPlatform reports whether p is one of the known platforms.
func ValidPlatform(p Platform) bool {
	return p == PlatformPC || p == PlatformAndroid
}

// CalendarDate is a plain Gregorian calendar date. Immutable value type;
// Month is 1-based.
type CalendarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Valid reports whether month and day are structurally in range. It does
// not check month length (e.g. February 30 passes); the date codec only
// requires the 1..12 / 1..31 bounds.
func (d CalendarDate) Valid() bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ClockTime is a wall-clock time of day. Immutable value type.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t ClockTime) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ScheduleSlot is one concrete occurrence of an event.
type ScheduleSlot struct {
	Date CalendarDate `json:"date"`
	Time ClockTime    `json:"time"`
}

// SelectedSchedule is a user's pick of one slot of one event. EventID
// references Event.UID.
type SelectedSchedule struct {
	EventID string       `json:"uid"`
	Slot    ScheduleSlot `json:"schedule"`
}

// Key returns the canonical identity of a selection. Two selections with
// the same key are duplicates and collapse under share-token round trips.
func (s SelectedSchedule) Key() string {
	return fmt.Sprintf("%s_%d-%d-%d_%d-%d",
		s.EventID,
		s.Slot.Date.Year, s.Slot.Date.Month, s.Slot.Date.Day,
		s.Slot.Time.Hour, s.Slot.Time.Minute)
}

// Event is one catalog entry. The catalog is loaded once from a static
// source and treated as read-only for the lifetime of the process.
type Event struct {
	UID             string         `json:"uid"`
	Title           string         `json:"title"`
	Platform        []Platform     `json:"platform"`
	Image           string         `json:"image,omitempty"`
	Floor           string         `json:"floor,omitempty"`
	LocationName    string         `json:"locationName,omitempty"`
	Description     string         `json:"description,omitempty"`
	Path            string         `json:"path,omitempty"`
	TimeSlotMinutes int            `json:"timeSlotMinutes"`
	Schedules       []ScheduleSlot `json:"schedules"`
}
