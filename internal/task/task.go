// Package task defines the normalized task model shared by every input source.
package task

import (
	"strings"
	"time"

	"github.com/vkoski/daybook/internal/date"
)

// Priority is a task urgency level. P1 is the most urgent, P4 the default.
type Priority int

// Priority levels in rendered order.
const (
	P1 Priority = 1
	P2 Priority = 2
	P3 Priority = 3
	P4 Priority = 4
)

// PriorityFromRemote maps the task service's inverted scale (4 = most
// urgent, 1 = default) onto Priority. Out-of-range values fall back to P4.
func PriorityFromRemote(n int) Priority {
	if n < 1 || n > 4 {
		return P4
	}
	return Priority(5 - n)
}

// Source identifies where a task record came from.
type Source string

// Task sources.
const (
	SourceTask     Source = "task"
	SourceCalendar Source = "calendar"
)

// Task is a remote-sourced entity normalized into a uniform shape.
// The reconciler holds a read-only snapshot of these per run.
type Task struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	Priority    Priority       `json:"priority"`
	Due         *date.Date     `json:"due,omitempty"`
	Time        *date.TimeSpan `json:"time,omitempty"`
	Completed   bool           `json:"completed"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ParentID    string         `json:"parent_id,omitempty"`
	Project     string         `json:"project,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Source      Source         `json:"source"`
}

// Mutable reports whether the task may receive remote mutations.
// Calendar-imported pseudo-tasks cannot be completed or rescheduled
// back to the task service.
func (t *Task) Mutable() bool {
	return t.Source != SourceCalendar
}

// DueOn reports whether the task is due on the given date.
func (t *Task) DueOn(d date.Date) bool {
	return t.Due != nil && t.Due.Equal(d)
}

// DueBefore reports whether the task is due strictly before the given date.
func (t *Task) DueBefore(d date.Date) bool {
	return t.Due != nil && t.Due.Before(d)
}

// DedupKey returns the normalized identity used to collapse a native task
// and a calendar-imported twin of the same event: case-folded,
// whitespace-collapsed text plus the rendered scheduled time.
func (t *Task) DedupKey() string {
	key := NormalizeText(t.Text)
	if t.Time != nil {
		key += "|" + t.Time.String()
	}
	return key
}

// NormalizeText lowercases text and collapses runs of whitespace to a
// single space.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
