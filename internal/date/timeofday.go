package date

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay creates a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ClockOf returns the time of day of the given instant, read in its location.
func ClockOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

// ParseTimeOfDay parses "H:MM" or "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: hour 0-23 and minute 0-59", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String returns the time as zero-padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add returns the time advanced by the given number of minutes,
// wrapping past midnight.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	m := (int(t) + minutes) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return TimeOfDay(m)
}

// On materializes the time of day on a calendar date in the given location.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// TimeSpan is a scheduled time with an optional end, e.g. "10:00" or "10:00 - 11:30".
type TimeSpan struct {
	Start TimeOfDay
	End   *TimeOfDay
}

// Span creates a TimeSpan without an end time.
func Span(start TimeOfDay) TimeSpan {
	return TimeSpan{Start: start}
}

// SpanWithDuration creates a TimeSpan whose end is the start advanced by
// the given number of minutes. Non-positive durations yield no end time.
func SpanWithDuration(start TimeOfDay, minutes int) TimeSpan {
	if minutes <= 0 {
		return TimeSpan{Start: start}
	}
	end := start.Add(minutes)
	return TimeSpan{Start: start, End: &end}
}

// ParseTimeSpan parses "HH:MM" or "HH:MM - HH:MM" into a TimeSpan.
func ParseTimeSpan(s string) (TimeSpan, error) {
	startStr, endStr, hasEnd := strings.Cut(s, " - ")
	start, err := ParseTimeOfDay(strings.TrimSpace(startStr))
	if err != nil {
		return TimeSpan{}, err
	}
	if !hasEnd {
		return TimeSpan{Start: start}, nil
	}
	end, err := ParseTimeOfDay(strings.TrimSpace(endStr))
	if err != nil {
		return TimeSpan{}, err
	}
	return TimeSpan{Start: start, End: &end}, nil
}

// String renders "HH:MM" or "HH:MM - HH:MM".
func (s TimeSpan) String() string {
	if s.End == nil {
		return s.Start.String()
	}
	return s.Start.String() + " - " + s.End.String()
}

// Equal reports whether two spans have the same start and end.
func (s TimeSpan) Equal(o TimeSpan) bool {
	if s.Start != o.Start {
		return false
	}
	if (s.End == nil) != (o.End == nil) {
		return false
	}
	return s.End == nil || *s.End == *o.End
}

// MarshalJSON renders the span in its note form, e.g. "10:00 - 11:30".
func (s TimeSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the note form produced by MarshalJSON.
func (s *TimeSpan) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeSpan(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Minutes returns the span length in minutes, or 0 when no end is set.
// Spans crossing midnight wrap.
func (s TimeSpan) Minutes() int {
	if s.End == nil {
		return 0
	}
	m := int(*s.End) - int(s.Start)
	if m < 0 {
		m += minutesPerDay
	}
	return m
}
