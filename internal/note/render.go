package note

import (
	"fmt"
	"strings"

	"github.com/vkoski/daybook/internal/task"
)

// Render serializes a Document back into note text. It is deterministic:
// the same document and options always produce byte-identical output.
// Raw blocks and the frozen tail pass through verbatim; managed sections
// are laid out by the renderer.
func Render(d *Document, opts Options) string {
	var out []string
	for _, b := range d.Blocks {
		switch b := b.(type) {
		case *RawBlock:
			out = append(out, b.Lines...)
		case *Section:
			out = append(out, renderSection(b, opts)...)
		}
	}
	out = append(out, d.Frozen...)

	text := strings.Join(out, "\n")
	if d.trailingNewline {
		text += "\n"
	}
	return text
}

func renderSection(sec *Section, opts Options) []string {
	name := opts.HeadingToday
	if sec.Kind == SectionBacklog {
		name = opts.HeadingBacklog
	}

	out := []string{heading("##", name, len(sec.Lines), opts), ""}
	for _, g := range groupLines(sec.Lines) {
		if g.label != "" {
			out = append(out, heading("###", g.label, len(g.lines), opts), "")
		}
		for _, ln := range g.lines {
			out = append(out, renderLine(ln, opts))
		}
		out = append(out, "")
	}
	if len(sec.Orphans) > 0 {
		out = append(out, sec.Orphans...)
		out = append(out, "")
	}
	return out
}

func heading(marker, name string, n int, opts Options) string {
	word := opts.TaskWordMany
	if n == 1 {
		word = opts.TaskWordOne
	}
	return fmt.Sprintf("%s %s (%d %s)", marker, name, n, word)
}

// lineGroup is a run of lines rendered under one label subheading.
// The empty label renders without a subheading.
type lineGroup struct {
	label string
	lines []Line
}

// groupLines splits lines into label groups. Group boundaries follow
// top-level lines only: children stay in their parent's group no matter
// what label they carry themselves.
func groupLines(lines []Line) []lineGroup {
	var groups []lineGroup
	for _, ln := range lines {
		if len(groups) == 0 || (ln.Indent == 0 && ln.Project != groups[len(groups)-1].label) {
			groups = append(groups, lineGroup{label: ln.Project})
		}
		g := &groups[len(groups)-1]
		g.lines = append(g.lines, ln)
	}
	return groups
}

func renderLine(ln Line, opts Options) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("\t", ln.Indent))
	if ln.Checked {
		b.WriteString("- [x] ")
	} else {
		b.WriteString("- [ ] ")
	}
	if ln.Priority >= task.P1 && ln.Priority <= task.P3 {
		fmt.Fprintf(&b, `<i d="p%d">p%d</i> `, ln.Priority, ln.Priority)
	}
	if ln.Time != nil {
		b.WriteString(ln.Time.String())
		b.WriteString(" ")
	}
	b.WriteString(`<span data-id="`)
	b.WriteString(ln.ID)
	b.WriteString(`" data-project="`)
	b.WriteString(ln.Project)
	b.WriteString(`">`)
	b.WriteString(ln.Text)
	b.WriteString(`</span>`)
	if opts.IncludeCompletion && ln.CompletedAt != nil {
		fmt.Fprintf(&b, " (%s %s)", opts.CompletionPrefix, ln.CompletedAt)
	}
	return b.String()
}
