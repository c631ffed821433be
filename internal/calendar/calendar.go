// Package calendar imports events from an iCalendar feed as read-only
// pseudo-tasks. The feed is one-directional: nothing in the note ever
// propagates back to the calendar service.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/task"
)

const requestTimeout = 20 * time.Second

// SeenStore remembers when an event id was first imported. The recorded
// instant becomes the pseudo-task's creation time, so deduplication can
// prefer the older record even across runs.
type SeenStore interface {
	FirstSeen(id string, now time.Time) time.Time
}

// Client fetches an iCalendar feed over HTTP.
type Client struct {
	feedURL string
	http    *http.Client
}

// New creates a client for the given feed URL.
func New(feedURL string) *Client {
	return &Client{
		feedURL: feedURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// TasksForDate fetches the feed and returns the events of the given
// local day as pseudo-tasks.
func (c *Client) TasksForDate(ctx context.Context, day date.Date, loc *time.Location, seen SeenStore) ([]task.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar feed: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 { //nolint:mnd // non-2xx
		return nil, fmt.Errorf("calendar feed status=%d body=%s", res.StatusCode, string(body))
	}

	return Normalize(ParseFeed(string(body), loc), day, loc, seen, time.Now()), nil
}

// Normalize maps the events starting on the given day to pseudo-tasks.
// Each gets a synthetic id stable across runs, the lowest priority, and
// a creation time from the seen store. All-day events carry no
// scheduled time. Multi-day events appear only on their start date.
func Normalize(events []Event, day date.Date, loc *time.Location, seen SeenStore, now time.Time) []task.Task {
	var out []task.Task
	for _, ev := range events {
		start := ev.Start.In(loc)
		if !date.FromTime(start).Equal(day) {
			continue
		}
		text := strings.Join(strings.Fields(ev.Summary), " ")
		if text == "" {
			continue
		}

		id := eventID(ev)
		due := day
		t := task.Task{
			ID:        id,
			Text:      text,
			Priority:  task.P4,
			Due:       &due,
			CreatedAt: seen.FirstSeen(id, now),
			Source:    task.SourceCalendar,
		}
		if !ev.AllDay {
			span := date.Span(date.ClockOf(start))
			if end := ev.End.In(loc); ev.End.After(ev.Start) && date.FromTime(end).Equal(day) {
				clock := date.ClockOf(end)
				span.End = &clock
			}
			t.Time = &span
		}
		out = append(out, t)
	}
	return out
}

// eventID derives the stable synthetic id for an event occurrence. The
// UID alone is not enough: a recurring event repeats it for every
// occurrence, so the start instant is part of the identity.
func eventID(ev Event) string {
	name := "daybook://calendar/" + ev.UID + "/" + ev.Start.UTC().Format(time.RFC3339)
	return "cal-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
