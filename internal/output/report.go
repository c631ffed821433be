package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/reconcile"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// DisableColor strips all styling from report output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	pathStyle = lipgloss.NewStyle()
	okStyle = lipgloss.NewStyle()
	failStyle = lipgloss.NewStyle()
}

// MutationResult is the outcome of one remote mutation. Code carries the
// stable machine-readable code for failed mutations.
type MutationResult struct {
	Mutation reconcile.Mutation `json:"mutation"`
	OK       bool               `json:"ok"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Report summarizes one synchronization pass.
type Report struct {
	Date      date.Date        `json:"date"`
	NotePath  string           `json:"note_path"`
	Created   bool             `json:"created"`
	Today     int              `json:"today"`
	Backlog   int              `json:"backlog"`
	Mutations []MutationResult `json:"mutations"`
	DryRun    bool             `json:"dry_run"`
}

// Sync renders a synchronization report as styled text.
func Sync(w io.Writer, r Report) {
	title := "Synced " + r.Date.String()
	if r.DryRun {
		title = "Dry run for " + r.Date.String()
	}
	fmt.Fprintln(w, headerStyle.Render(title))

	note := pathStyle.Render(r.NotePath)
	if r.Created {
		note += " " + dimStyle.Render("(created)")
	}
	printField(w, "Note", note)
	printField(w, "Tasks", fmt.Sprintf("%d today, %d backlog", r.Today, r.Backlog))

	if len(r.Mutations) == 0 {
		printField(w, "Mutations", dimStyle.Render("--"))
		return
	}
	printField(w, "Mutations", strconv.Itoa(len(r.Mutations)))
	for _, m := range r.Mutations {
		switch {
		case r.DryRun:
			fmt.Fprintf(w, "    %s %s\n", dimStyle.Render("would"), m.Mutation)
		case m.OK:
			fmt.Fprintf(w, "    %s %s\n", okStyle.Render("ok"), m.Mutation)
		default:
			fmt.Fprintf(w, "    %s %s: %s\n", failStyle.Render("failed"), m.Mutation, m.Error)
		}
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}
