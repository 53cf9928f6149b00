package share

import (
	"errors"
	"fmt"

	"vfestimetable/internal/model"
)

// ErrInvalidDate is returned when a date with an out-of-range month or day
// reaches the date codec.
var ErrInvalidDate = errors.New("invalid calendar date")

// Day 0 of the share encoding is January 1 of the base year. The festival
// runs a few weeks around the base year, so every encodable date yields a
// small non-negative offset that fits comfortably in 16 bits.
const (
	baseYear = 2024

	// Julian Day Number of {baseYear}-01-01, from gregorianJDN below.
	baseJDN = 2460311
)

// DateToOffset converts a calendar date into its day offset from the base
// epoch using the Gregorian Julian Day Number transform. The computation is
// pure integer arithmetic, so no local timezone can shift the result.
func DateToOffset(d model.CalendarDate) (int, error) {
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return gregorianJDN(d.Year, d.Month, d.Day) - baseJDN, nil
}

// OffsetToDate is the exact inverse of DateToOffset. It is total over every
// offset a prior DateToOffset call can produce.
func OffsetToDate(offset int) model.CalendarDate {
	jdn := offset + baseJDN

	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153

	return model.CalendarDate{
		Year:  100*b + d - 4800 + m/10,
		Month: m + 3 - 12*(m/10),
		Day:   e - (153*m+2)/5 + 1,
	}
}

// gregorianJDN computes the Julian Day Number of a proleptic Gregorian date.
func gregorianJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}
