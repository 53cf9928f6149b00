package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"vfestimetable/internal/model"
)

// The source events.json keeps every schedule field as a string; Parse
// converts them to the integer value types the rest of the system uses.
type rawSchedule struct {
	Year string `json:"year"`
	Date struct {
		Month string `json:"month"`
		Day   string `json:"day"`
	} `json:"date"`
	Time struct {
		Hour   string `json:"hour"`
		Minute string `json:"minute"`
	} `json:"time"`
}

type rawEvent struct {
	UID             string        `json:"uid"`
	Title           string        `json:"title"`
	Platform        []string      `json:"platform"`
	Image           string        `json:"image"`
	Floor           string        `json:"floor"`
	LocationName    string        `json:"locationName"`
	Description     string        `json:"description"`
	Path            string        `json:"path"`
	TimeSlotMinutes int           `json:"timeSlotMinutes"`
	Schedules       []rawSchedule `json:"schedules"`
}

type rawCatalog struct {
	Events []rawEvent `json:"events"`
}

// Parse decodes and validates a catalog JSON payload.
func Parse(data []byte) ([]model.Event, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(raw.Events) == 0 {
		return nil, errors.New("catalog contains no events")
	}

	events := make([]model.Event, 0, len(raw.Events))
	for _, re := range raw.Events {
		ev, err := convertEvent(re)
		if err != nil {
			return nil, fmt.Errorf("catalog event %q: %w", re.UID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadFile reads and parses a catalog from a local JSON file.
func LoadFile(path string) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

func convertEvent(re rawEvent) (model.Event, error) {
	if re.UID == "" {
		return model.Event{}, errors.New("missing uid")
	}
	if re.TimeSlotMinutes <= 0 {
		return model.Event{}, fmt.Errorf("bad timeSlotMinutes %d", re.TimeSlotMinutes)
	}

	platforms := make([]model.Platform, 0, len(re.Platform))
	for _, p := range re.Platform {
		mp := model.Platform(p)
		if !model.ValidPlatform(mp) {
			return model.Event{}, fmt.Errorf("unknown platform %q", p)
		}
		platforms = append(platforms, mp)
	}

	slots := make([]model.ScheduleSlot, 0, len(re.Schedules))
	for _, rs := range re.Schedules {
		slot, err := convertSchedule(rs)
		if err != nil {
			return model.Event{}, err
		}
		slots = append(slots, slot)
	}

	return model.Event{
		UID:             re.UID,
		Title:           re.Title,
		Platform:        platforms,
		Image:           re.Image,
		Floor:           re.Floor,
		LocationName:    re.LocationName,
		Description:     re.Description,
		Path:            re.Path,
		TimeSlotMinutes: re.TimeSlotMinutes,
		Schedules:       slots,
	}, nil
}

func convertSchedule(rs rawSchedule) (model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	var err error

	if slot.Date.Year, err = atoiField("year", rs.Year); err != nil {
		return slot, err
	}
	if slot.Date.Month, err = atoiField("month", rs.Date.Month); err != nil {
		return slot, err
	}
	if slot.Date.Day, err = atoiField("day", rs.Date.Day); err != nil {
		return slot, err
	}
	if slot.Time.Hour, err = atoiField("hour", rs.Time.Hour); err != nil {
		return slot, err
	}
	if slot.Time.Minute, err = atoiField("minute", rs.Time.Minute); err != nil {
		return slot, err
	}

	if !slot.Date.Valid() {
		return slot, fmt.Errorf("bad schedule date %s", slot.Date)
	}
	if !slot.Time.Valid() {
		return slot, fmt.Errorf("bad schedule time %s", slot.Time)
	}
	return slot, nil
}

func atoiField(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, value)
	}
	return n, nil
}
