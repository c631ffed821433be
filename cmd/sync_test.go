package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkoski/daybook/internal/calendar"
	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/config"
	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/reconcile"
	"github.com/vkoski/daybook/internal/task"
	"github.com/vkoski/daybook/internal/todoist"
	"github.com/vkoski/daybook/internal/vault"
)

var (
	testZone = time.FixedZone("UTC+3", 3*60*60)
	testDay  = date.New(2026, time.August, 25)
)

// fakeStore records which mutations a pass pushed to the task service.
type fakeStore struct {
	tasks       []task.Task
	pingErr     error
	tasksErr    error
	completeErr map[string]error

	completed   []string
	rescheduled map[string]date.TimeSpan
}

func (f *fakeStore) Ping(context.Context) (todoist.Projects, error) {
	if f.pingErr != nil {
		return nil, f.pingErr
	}
	return todoist.Projects{}, nil
}

func (f *fakeStore) TasksForDate(context.Context, date.Date, *time.Location, todoist.Projects) ([]task.Task, error) {
	return f.tasks, f.tasksErr
}

func (f *fakeStore) CompleteTask(_ context.Context, id string) error {
	if err := f.completeErr[id]; err != nil {
		return err
	}
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeStore) RescheduleTask(_ context.Context, id string, _ date.Date, span date.TimeSpan, _ *time.Location) error {
	if f.rescheduled == nil {
		f.rescheduled = make(map[string]date.TimeSpan)
	}
	f.rescheduled[id] = span
	return nil
}

type fakeFeed struct {
	tasks []task.Task
	err   error
}

func (f *fakeFeed) TasksForDate(context.Context, date.Date, *time.Location, calendar.SeenStore) ([]task.Task, error) {
	return f.tasks, f.err
}

func newTestPass(t *testing.T, store *fakeStore) pass {
	t.Helper()
	cfg := config.NewDefault(t.TempDir())
	return pass{
		store: store,
		vault: vault.New(cfg.Vault, cfg.Locale.Weekdays),
		opts:  cfg.NoteOptions(testZone),
		loc:   testZone,
		day:   testDay,
		warn:  &bytes.Buffer{},
		now: func() time.Time {
			return time.Date(2026, time.August, 25, 7, 30, 0, 0, testZone)
		},
	}
}

func dueToday(id, text string, p task.Priority, created time.Time) task.Task {
	d := testDay
	return task.Task{
		ID: id, Text: text, Priority: p, Due: &d,
		CreatedAt: created, Source: task.SourceTask,
	}
}

func readNote(t *testing.T, p pass) string {
	t.Helper()
	text, err := p.vault.Read(p.day)
	require.NoError(t, err)
	return text
}

// editLine applies a manual edit to the managed line carrying the given
// task id, the way a user editing the note would.
func editLine(t *testing.T, text, id, old, replacement string) string {
	t.Helper()
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if strings.Contains(ln, `data-id="`+id+`"`) {
			require.Contains(t, ln, old)
			lines[i] = strings.Replace(ln, old, replacement, 1)
			return strings.Join(lines, "\n")
		}
	}
	t.Fatalf("no managed line for %s", id)
	return ""
}

var created = time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

func TestPassCreatesNote(t *testing.T) {
	yesterday := date.New(2026, time.August, 24)
	f := &fakeStore{tasks: []task.Task{
		dueToday("T1", "Osta maitoa", task.P1, created),
		dueToday("T2", "Soita isälle", task.P4, created.Add(time.Hour)),
		{ID: "T3", Text: "Vie kirjat", Priority: task.P4, Due: &yesterday,
			CreatedAt: created, Source: task.SourceTask},
	}}

	p := newTestPass(t, f)
	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Created)
	assert.Equal(t, 2, report.Today)
	assert.Equal(t, 1, report.Backlog)
	assert.Empty(t, report.Mutations)
	assert.Equal(t, p.vault.NotePath(testDay), report.NotePath)

	text := readNote(t, p)
	assert.True(t, strings.HasPrefix(text, "# Tiistai, 25. elokuuta"))
	assert.Contains(t, text, "## Päivän tehtävät (2 tehtävää)")
	assert.Contains(t, text, "## Backlog (1 tehtävä)")
	assert.Contains(t, text, `data-id="T1"`)
	assert.Contains(t, text, `data-id="T3"`)
}

func TestPassSecondRunIsIdempotent(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{
		dueToday("T1", "Osta maitoa", task.P2, created),
	}}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())
	require.NoError(t, err)
	first := readNote(t, p)

	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Created)
	assert.Empty(t, report.Mutations)
	assert.Equal(t, first, readNote(t, p))
}

func TestPassDryRunAppliesNothing(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{
		dueToday("T1", "Osta maitoa", task.P4, created),
	}}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())
	require.NoError(t, err)

	edited := editLine(t, readNote(t, p), "T1", "[ ]", "[x]")
	require.NoError(t, p.vault.Write(p.day, edited))

	p.dryRun = true
	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	require.Len(t, report.Mutations, 1)
	assert.True(t, report.Mutations[0].OK)
	assert.Equal(t, reconcile.MutationComplete, report.Mutations[0].Mutation.Kind)
	assert.Equal(t, "T1", report.Mutations[0].Mutation.ID)

	assert.Empty(t, f.completed, "dry run must not touch the remote")
	assert.Empty(t, f.rescheduled)
	assert.Equal(t, edited, readNote(t, p), "dry run must not rewrite the note")
}

func TestPassDryRunSkipsCreatingNote(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{
		dueToday("T1", "Osta maitoa", task.P4, created),
	}}

	p := newTestPass(t, f)
	p.dryRun = true
	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Created)
	assert.Empty(t, readNote(t, p))
}

func TestPassPushesCompletion(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{
		dueToday("T1", "Osta maitoa", task.P4, created),
	}}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())
	require.NoError(t, err)

	edited := editLine(t, readNote(t, p), "T1", "[ ]", "[x]")
	require.NoError(t, p.vault.Write(p.day, edited))

	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"T1"}, f.completed)
	require.Len(t, report.Mutations, 1)
	assert.True(t, report.Mutations[0].OK)

	// The checked box survives the rebuild even though the remote still
	// reports the task open.
	assert.Contains(t, readNote(t, p), "[x]")
}

func TestPassPushesReschedule(t *testing.T) {
	span := date.SpanWithDuration(date.NewTimeOfDay(9, 0), 30)
	tk := dueToday("T1", "Tiimipalaveri", task.P4, created)
	tk.Time = &span
	f := &fakeStore{tasks: []task.Task{tk}}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())
	require.NoError(t, err)

	edited := editLine(t, readNote(t, p), "T1", "09:00 - 09:30", "10:00 - 10:30")
	require.NoError(t, p.vault.Write(p.day, edited))

	report, err := p.run(context.Background())
	require.NoError(t, err)

	require.Contains(t, f.rescheduled, "T1")
	assert.Equal(t, "10:00 - 10:30", f.rescheduled["T1"].String())
	require.Len(t, report.Mutations, 1)
	assert.Equal(t, reconcile.MutationReschedule, report.Mutations[0].Mutation.Kind)

	// The note keeps the user's time.
	assert.Contains(t, readNote(t, p), "10:00 - 10:30")
	assert.NotContains(t, readNote(t, p), "09:00 - 09:30")
}

func TestPassMutationFailureContinues(t *testing.T) {
	f := &fakeStore{
		tasks: []task.Task{
			dueToday("T1", "Osta maitoa", task.P1, created),
			dueToday("T2", "Soita isälle", task.P4, created),
		},
		completeErr: map[string]error{"T1": errors.New("status=403")},
	}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())
	require.NoError(t, err)

	text := readNote(t, p)
	text = editLine(t, text, "T1", "[ ]", "[x]")
	text = editLine(t, text, "T2", "[ ]", "[x]")
	require.NoError(t, p.vault.Write(p.day, text))

	warn := &bytes.Buffer{}
	p.warn = warn
	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"T2"}, f.completed, "the other mutation still lands")

	require.Len(t, report.Mutations, 2)
	byID := make(map[string]bool, len(report.Mutations))
	for _, m := range report.Mutations {
		byID[m.Mutation.ID] = m.OK
		if !m.OK {
			assert.Equal(t, clierr.MutationFailed, m.Code)
			assert.Contains(t, m.Error, "status=403")
		}
	}
	assert.False(t, byID["T1"])
	assert.True(t, byID["T2"])
	assert.Contains(t, warn.String(), "Warning: mutation failed")
}

func TestPassPingFailureAbortsBeforeWriting(t *testing.T) {
	f := &fakeStore{pingErr: errors.New("status=503")}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())

	var cerr *clierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, clierr.RemoteUnavailable, cerr.Code)
	assert.Empty(t, readNote(t, p), "a failed health check must leave the vault alone")
}

func TestPassSnapshotFailureAborts(t *testing.T) {
	f := &fakeStore{tasksErr: errors.New("status=500")}

	p := newTestPass(t, f)
	_, err := p.run(context.Background())

	var cerr *clierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, clierr.RemoteUnavailable, cerr.Code)
	assert.Empty(t, readNote(t, p))
}

func TestPassCompletedUnavailableWarnsAndContinues(t *testing.T) {
	f := &fakeStore{
		tasks:    []task.Task{dueToday("T1", "Osta maitoa", task.P4, created)},
		tasksErr: fmt.Errorf("completed items: %w", todoist.ErrCompletedUnavailable),
	}

	p := newTestPass(t, f)
	warn := &bytes.Buffer{}
	p.warn = warn
	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Today)
	assert.Contains(t, warn.String(), "Warning:")
	assert.Contains(t, readNote(t, p), `data-id="T1"`)
}

func TestPassFeedFailureWarnsAndContinues(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{dueToday("T1", "Osta maitoa", task.P4, created)}}

	p := newTestPass(t, f)
	p.feed = &fakeFeed{err: errors.New("status=410")}
	warn := &bytes.Buffer{}
	p.warn = warn

	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Today)
	assert.Contains(t, warn.String(), "Warning: calendar feed")
	assert.Contains(t, readNote(t, p), `data-id="T1"`)
}

func TestPassMergesCalendarFeed(t *testing.T) {
	f := &fakeStore{tasks: []task.Task{dueToday("T1", "Osta maitoa", task.P4, created)}}

	d := testDay
	span := date.SpanWithDuration(date.NewTimeOfDay(14, 0), 60)
	p := newTestPass(t, f)
	p.feed = &fakeFeed{tasks: []task.Task{{
		ID: "cal-1", Text: "Viikkopalaveri", Priority: task.P4, Due: &d,
		Time: &span, CreatedAt: created, Source: task.SourceCalendar,
	}}}

	report, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Today)
	text := readNote(t, p)
	assert.Contains(t, text, `data-id="cal-1"`)
	assert.Contains(t, text, "14:00 - 15:00")
}
