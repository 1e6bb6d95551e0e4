package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage format of calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire and storage format of wall-clock times.
	ClockLayout = "15:04"
)

// ParseError reports a malformed "HH:MM" string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

// ToMinutes parses "HH:MM" into minutes since midnight. It does not clamp:
// hours outside 0-23 or minutes outside 0-59 are errors.
func ToMinutes(hhmm string) (int, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, &ParseError{Input: hhmm, Reason: "expected HH:MM"}
	}
	if len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, &ParseError{Input: hhmm, Reason: "expected HH:MM"}
	}
	hours, err := atoiDigits(h)
	if err != nil {
		return 0, &ParseError{Input: hhmm, Reason: "hour is not a number"}
	}
	minutes, err := atoiDigits(m)
	if err != nil {
		return 0, &ParseError{Input: hhmm, Reason: "minute is not a number"}
	}
	if hours > 23 {
		return 0, &ParseError{Input: hhmm, Reason: "hour out of range"}
	}
	if minutes > 59 {
		return 0, &ParseError{Input: hhmm, Reason: "minute out of range"}
	}
	return hours*60 + minutes, nil
}

// atoiDigits accepts ASCII digits only, so signs and spaces are rejected.
func atoiDigits(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a digit: %q", c)
		}
	}
	return strconv.Atoi(s)
}

// DurationMinutes returns end - start in minutes, clamped to 0 when end is
// not after start. Intervals crossing midnight are not supported.
func DurationMinutes(start, end string) (int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	if e < s {
		return 0, nil
	}
	return e - s, nil
}

// FormatDuration renders minutes as "1h30", "0h45" or "8h00".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}

// ValidClock reports whether s is a well-formed "HH:MM".
func ValidClock(s string) bool {
	_, err := ToMinutes(s)
	return err == nil && len(s) == 5
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NormalizeDate trims a date read from a store ("2026-02-27T00:00:00Z") to
// YYYY-MM-DD.
func NormalizeDate(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}

// NormalizeClock trims a time read from a store ("08:30:00") to HH:MM.
func NormalizeClock(s string) string {
	if len(s) > len(ClockLayout) {
		return s[:len(ClockLayout)]
	}
	return s
}

// Today returns the local calendar date of t.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// ClockNow returns the wall-clock time of t truncated to the minute.
func ClockNow(t time.Time) string {
	return t.Format(ClockLayout)
}

// MonthStart returns the first day of the month containing t as YYYY-MM-DD.
func MonthStart(t time.Time) string {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Format(DateLayout)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
