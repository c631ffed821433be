package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vkoski/daybook/internal/calendar"
	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/config"
	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/note"
	"github.com/vkoski/daybook/internal/output"
	"github.com/vkoski/daybook/internal/reconcile"
	"github.com/vkoski/daybook/internal/seenlog"
	"github.com/vkoski/daybook/internal/task"
	"github.com/vkoski/daybook/internal/todoist"
	"github.com/vkoski/daybook/internal/vault"
)

var (
	syncDate   string
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass",
	Long: `Fetches the day's tasks from Todoist (plus the calendar feed, when
configured), merges them into the daily note, writes the note back, and
applies completions and time edits to Todoist.

A failed health check aborts the run before anything is written. A failed
individual mutation is reported and the run continues.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncDate, "date", "", "target date (YYYY-MM-DD, default today)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report what would change without writing or mutating")
	syncCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "day":
			name = "date"
		case "dryrun":
			name = "dry-run"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(syncCmd)
}

// taskStore is the slice of the Todoist client a sync pass needs.
type taskStore interface {
	Ping(ctx context.Context) (todoist.Projects, error)
	TasksForDate(ctx context.Context, day date.Date, loc *time.Location, projects todoist.Projects) ([]task.Task, error)
	CompleteTask(ctx context.Context, id string) error
	RescheduleTask(ctx context.Context, id string, day date.Date, span date.TimeSpan, loc *time.Location) error
}

// eventFeed is the slice of the calendar client a sync pass needs.
type eventFeed interface {
	TasksForDate(ctx context.Context, day date.Date, loc *time.Location, seen calendar.SeenStore) ([]task.Task, error)
}

// pass bundles the collaborators of one synchronization run.
type pass struct {
	store  taskStore
	feed   eventFeed // nil when no feed is configured
	seen   calendar.SeenStore
	vault  *vault.Vault
	opts   note.Options
	loc    *time.Location
	day    date.Date
	dryRun bool
	warn   io.Writer
	now    func() time.Time
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return clierr.Newf(clierr.InvalidConfig, "%v", err)
	}
	day, err := resolveDate(syncDate, loc)
	if err != nil {
		return err
	}
	if cfg.Token() == "" {
		return clierr.Newf(clierr.InvalidConfig,
			"no Todoist token: set todoist.token or %s", config.EnvToken)
	}

	p := pass{
		store:  todoist.New(cfg.Token(), cfg.Todoist.BaseURL, cfg.Todoist.SyncURL),
		vault:  openVault(cfg),
		opts:   cfg.NoteOptions(loc),
		loc:    loc,
		day:    day,
		dryRun: syncDryRun,
		warn:   os.Stderr,
		now:    time.Now,
	}
	if cfg.Calendar.FeedURL != "" {
		seen, err := openSeenLog(cfg.SeenLogPath(), syncDryRun)
		if err != nil {
			// Without first-seen times calendar imports would churn;
			// skip the feed rather than abort the whole run.
			fmt.Fprintf(os.Stderr, "Warning: seen log: %v\n", err)
		} else {
			p.feed = calendar.New(cfg.Calendar.FeedURL)
			p.seen = seen
		}
	}

	report, err := p.run(cmd.Context())
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.Sync(os.Stdout, report)
	}

	for _, m := range report.Mutations {
		if !m.OK {
			return &clierr.SilentError{Code: 1}
		}
	}
	return nil
}

// run performs one pass: fetch, reconcile, write, mutate, report.
func (p pass) run(ctx context.Context) (output.Report, error) {
	projects, err := p.store.Ping(ctx)
	if err != nil {
		return output.Report{}, clierr.Newf(clierr.RemoteUnavailable, "%v", err)
	}

	snapshot, err := p.store.TasksForDate(ctx, p.day, p.loc, projects)
	if err != nil {
		if !errors.Is(err, todoist.ErrCompletedUnavailable) {
			return output.Report{}, clierr.Newf(clierr.RemoteUnavailable, "%v", err)
		}
		// Completed items are cosmetic; the open tasks are intact.
		fmt.Fprintf(p.warn, "Warning: %v\n", err)
	}

	if p.feed != nil {
		events, feedErr := p.feed.TasksForDate(ctx, p.day, p.loc, p.seen)
		if feedErr != nil {
			fmt.Fprintf(p.warn, "Warning: calendar feed: %v\n", feedErr)
		} else {
			snapshot = append(snapshot, events...)
		}
	}

	text, err := p.vault.Read(p.day)
	if err != nil {
		return output.Report{}, err
	}

	created := text == ""
	var doc *note.Document
	if created {
		doc = note.NewDocument(p.day, p.now().In(p.loc), dueTodayCount(snapshot, p.day), p.opts)
	} else {
		doc = note.Parse(text, p.opts)
	}

	muts := reconcile.Reconcile(snapshot, doc, p.day)

	if !p.dryRun {
		if err := p.vault.Write(p.day, note.Render(doc, p.opts)); err != nil {
			return output.Report{}, err
		}
	}

	return output.Report{
		Date:      p.day,
		NotePath:  p.vault.NotePath(p.day),
		Created:   created,
		Today:     doc.CountTasks(note.SectionToday),
		Backlog:   doc.CountTasks(note.SectionBacklog),
		Mutations: p.applyMutations(ctx, muts),
		DryRun:    p.dryRun,
	}, nil
}

// applyMutations pushes each mutation independently. Failures are
// reported and do not stop the remaining mutations; a dry run applies
// nothing.
func (p pass) applyMutations(ctx context.Context, muts []reconcile.Mutation) []output.MutationResult {
	if len(muts) == 0 {
		return nil
	}
	results := make([]output.MutationResult, 0, len(muts))
	for _, m := range muts {
		r := output.MutationResult{Mutation: m, OK: true}
		if !p.dryRun {
			if err := p.apply(ctx, m); err != nil {
				r.OK = false
				r.Code = clierr.MutationFailed
				r.Error = err.Error()
				fmt.Fprintf(p.warn, "Warning: mutation failed: %s: %v\n", m, err)
			}
		}
		results = append(results, r)
	}
	return results
}

func (p pass) apply(ctx context.Context, m reconcile.Mutation) error {
	switch m.Kind {
	case reconcile.MutationComplete:
		return p.store.CompleteTask(ctx, m.ID)
	case reconcile.MutationReschedule:
		return p.store.RescheduleTask(ctx, m.ID, p.day, *m.Time, p.loc)
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// dueTodayCount is the task count baked into the intro line when a note
// is first created.
func dueTodayCount(snapshot []task.Task, day date.Date) int {
	n := 0
	for i := range snapshot {
		if snapshot[i].DueOn(day) {
			n++
		}
	}
	return n
}

func openSeenLog(path string, readOnly bool) (*seenlog.Log, error) {
	if readOnly {
		return seenlog.OpenReadOnly(path)
	}
	return seenlog.Open(path)
}
