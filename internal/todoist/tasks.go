package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/task"
)

// ErrCompletedUnavailable reports that the completed-items lookup
// failed. The active snapshot returned alongside it is still usable;
// the caller decides whether to warn and continue.
var ErrCompletedUnavailable = errors.New("completed tasks unavailable")

const completedPageLimit = 100

// restTask mirrors the REST v2 task object.
type restTask struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Priority  int           `json:"priority"`
	ParentID  string        `json:"parent_id"`
	ProjectID string        `json:"project_id"`
	CreatedAt time.Time     `json:"created_at"`
	Due       *restDue      `json:"due"`
	Duration  *restDuration `json:"duration"`
}

type restDue struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime"`
}

type restDuration struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// TasksForDate fetches the snapshot for one day: open tasks due on or
// before the date, their subtasks, and the items completed during the
// date. When only the completed lookup fails the open tasks are
// returned together with an error wrapping ErrCompletedUnavailable.
func (c *Client) TasksForDate(ctx context.Context, day date.Date, loc *time.Location, projects Projects) ([]task.Task, error) {
	filter := fmt.Sprintf("due: %s | due before: %s", day, day)
	active, err := c.listTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	all, err := c.listTasks(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	kept := make(map[string]bool, len(active))
	for _, rt := range active {
		kept[rt.ID] = true
	}

	// Pull in descendants of kept tasks no matter what they are due;
	// they render beneath their parent.
	for changed := true; changed; {
		changed = false
		for _, rt := range all {
			if kept[rt.ID] || rt.ParentID == "" || !kept[rt.ParentID] {
				continue
			}
			kept[rt.ID] = true
			active = append(active, rt)
			changed = true
		}
	}

	out := make([]task.Task, 0, len(active))
	for _, rt := range active {
		out = append(out, toTask(rt, loc, projects))
	}

	completed, err := c.completedTasks(ctx, day, loc, projects)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrCompletedUnavailable, err)
	}
	for _, t := range completed {
		if !kept[t.ID] {
			kept[t.ID] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// RescheduleTask writes an edited scheduled time back to the task. Only
// the time of day moves; the task keeps the given date.
func (c *Client) RescheduleTask(ctx context.Context, id string, day date.Date, span date.TimeSpan, loc *time.Location) error {
	payload := map[string]any{
		"due_datetime": span.Start.On(day, loc).Format(time.RFC3339),
	}
	if span.End != nil {
		payload["duration"] = span.Minutes()
		payload["duration_unit"] = "minute"
	}
	if _, err := c.post(ctx, c.baseURL+"/tasks/"+url.PathEscape(id), payload); err != nil {
		return fmt.Errorf("rescheduling task %s: %w", id, err)
	}
	return nil
}

func (c *Client) listTasks(ctx context.Context, filter string) ([]restTask, error) {
	var query url.Values
	if filter != "" {
		query = url.Values{"filter": {filter}}
	}
	body, err := c.get(ctx, c.baseURL+"/tasks", query)
	if err != nil {
		return nil, err
	}

	var tasks []restTask
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (c *Client) taskDetail(ctx context.Context, id string) (restTask, error) {
	body, err := c.get(ctx, c.baseURL+"/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return restTask{}, err
	}
	var rt restTask
	if err := json.Unmarshal(body, &rt); err != nil {
		return restTask{}, fmt.Errorf("decode task: %w", err)
	}
	return rt, nil
}

// completedTasks lists the items completed during the given local day.
// Item records from the sync API are thin, so each one is enriched with
// a detail lookup; when that fails the item still appears, just without
// its scheduled time.
func (c *Client) completedTasks(ctx context.Context, day date.Date, loc *time.Location, projects Projects) ([]task.Task, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	query := url.Values{
		"since": {start.UTC().Format("2006-01-02T15:04:05Z")},
		"until": {start.Add(24 * time.Hour).UTC().Format("2006-01-02T15:04:05Z")},
		"limit": {strconv.Itoa(completedPageLimit)},
	}
	body, err := c.get(ctx, c.syncURL+"/completed/get_all", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []struct {
			TaskID      string `json:"task_id"`
			Content     string `json:"content"`
			CompletedAt string `json:"completed_at"`
			ProjectID   string `json:"project_id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode completed items: %w", err)
	}

	var out []task.Task
	for _, item := range payload.Items {
		at, err := time.Parse(time.RFC3339, item.CompletedAt)
		if err != nil {
			continue
		}
		local := at.In(loc)
		if !date.FromTime(local).Equal(day) {
			continue
		}

		t := task.Task{
			ID:        item.TaskID,
			Text:      item.Content,
			Priority:  task.P4,
			Project:   projects.Label(item.ProjectID),
			CreatedAt: local,
			Source:    task.SourceTask,
		}
		if rt, err := c.taskDetail(ctx, item.TaskID); err == nil {
			t = toTask(rt, loc, projects)
		}
		t.Completed = true
		t.CompletedAt = &local
		// A recurring task's due already points at the next occurrence;
		// pin the completed copy to the day it was done.
		d := day
		t.Due = &d
		out = append(out, t)
	}
	return out, nil
}

// toTask maps a REST record into the internal shape. A due datetime is
// read in the configured timezone so the date and clock match what the
// note shows; a plain due date carries no time.
func toTask(rt restTask, loc *time.Location, projects Projects) task.Task {
	t := task.Task{
		ID:        rt.ID,
		Text:      rt.Content,
		Priority:  task.PriorityFromRemote(rt.Priority),
		ParentID:  rt.ParentID,
		Project:   projects.Label(rt.ProjectID),
		CreatedAt: rt.CreatedAt,
		Source:    task.SourceTask,
	}
	if rt.Due == nil {
		return t
	}
	if rt.Due.Datetime != "" {
		if at, err := parseDueTime(rt.Due.Datetime, loc); err == nil {
			local := at.In(loc)
			d := date.FromTime(local)
			t.Due = &d
			span := date.SpanWithDuration(date.ClockOf(local), durationMinutes(rt.Duration))
			t.Time = &span
			return t
		}
	}
	if d, err := date.Parse(rt.Due.Date); err == nil {
		t.Due = &d
	}
	return t
}

// parseDueTime accepts both forms the API emits: RFC 3339 with zone
// information, or a naive local stamp.
func parseDueTime(s string, loc *time.Location) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, loc)
}

func durationMinutes(d *restDuration) int {
	if d == nil {
		return 0
	}
	switch d.Unit {
	case "minute":
		return d.Amount
	case "hour":
		return d.Amount * 60 //nolint:mnd // minutes per hour
	case "day":
		return d.Amount * 24 * 60 //nolint:mnd // minutes per day
	default:
		return 0
	}
}
