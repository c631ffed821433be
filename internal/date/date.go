// Package date provides calendar date and time-of-day types for daily notes.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

const format = "2006-01-02"

// Date represents a calendar date without time or timezone.
type Date struct {
	time.Time
}

// New creates a Date from year, month, day.
func New(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// TodayIn returns the current date in the given location.
func TodayIn(loc *time.Location) Date {
	now := time.Now().In(loc)
	return New(now.Year(), now.Month(), now.Day())
}

// FromTime returns the calendar date of the given instant, read in its location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Parse parses a YYYY-MM-DD string into a Date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(format)
}

// Equal reports whether two dates are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

// Before reports whether d falls before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d falls after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	t := d.AddDate(0, 0, 1)
	return New(t.Year(), t.Month(), t.Day())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
