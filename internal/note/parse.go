package note

import (
	"regexp"
	"strings"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/task"
)

var (
	headingRE = regexp.MustCompile(`^## (.+?)(?: \(\d+ [^()]*\))?$`)

	// Label subheadings are only recognized in the exact rendered form;
	// hand-written ### lines without a count stay preserved as orphans.
	subheadingRE = regexp.MustCompile(`^### .+ \(\d+ [^()]*\)$`)

	taskLineRE = regexp.MustCompile(`^(\t*)- \[(.)\] ` +
		`(?:<i d="p([1-3])">p[1-3]</i> )?` +
		`(?:(\d{1,2}:\d{2}(?: - \d{1,2}:\d{2})?) )?` +
		`<span data-id="([^"]*)"(?: data-project="([^"]*)")?>(.*)</span>.*$`)

	dataIDRE = regexp.MustCompile(`data-id="([^"]+)"`)
)

// Parse decomposes existing note text into a Document. It never fails:
// unrecognized content is preserved verbatim, the stop marker freezes
// everything at and below it, and managed sections are recognized by
// their configured headings with or without a count annotation.
func Parse(text string, opts Options) *Document {
	d := &Document{trailingNewline: text == "" || strings.HasSuffix(text, "\n")}

	lines := strings.Split(text, "\n")
	if d.trailingNewline && len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		if line == opts.StopMarker {
			d.Frozen = lines[i:]
			lines = lines[:i]
			break
		}
	}

	var raw []string
	flushRaw := func() {
		if len(raw) > 0 {
			d.Blocks = append(d.Blocks, &RawBlock{Lines: raw})
			raw = nil
		}
	}

	i := 0
	for i < len(lines) {
		kind, ok := matchHeading(lines[i], opts)
		if !ok {
			raw = append(raw, lines[i])
			i++
			continue
		}
		flushRaw()

		// A repeated managed heading merges into the first occurrence
		// so each task id keeps a single home.
		sec := d.Section(kind)
		if sec == nil {
			sec = &Section{Kind: kind}
			d.Blocks = append(d.Blocks, sec)
		}
		i++
		for i < len(lines) && !strings.HasPrefix(lines[i], "## ") {
			line := lines[i]
			i++
			switch {
			case strings.TrimSpace(line) == "":
				// Blank lines inside managed sections are formatting
				// owned by the renderer.
			case subheadingRE.MatchString(line):
				// Label subheadings are rebuilt from the snapshot.
			default:
				if ln, ok := parseTaskLine(line); ok {
					sec.Lines = append(sec.Lines, ln)
				} else {
					sec.Orphans = append(sec.Orphans, line)
				}
			}
		}
	}
	flushRaw()

	return d
}

// matchHeading reports whether a line is one of the managed section
// headings, ignoring any trailing count annotation.
func matchHeading(line string, opts Options) (SectionKind, bool) {
	m := headingRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	switch m[1] {
	case opts.HeadingToday:
		return SectionToday, true
	case opts.HeadingBacklog:
		return SectionBacklog, true
	}
	return 0, false
}

// parseTaskLine extracts a managed line. Lines without an embedded id
// are not managed.
func parseTaskLine(s string) (Line, bool) {
	m := taskLineRE.FindStringSubmatch(s)
	if m == nil || m[5] == "" {
		return Line{}, false
	}

	ln := Line{
		Indent:   len(m[1]),
		Checked:  m[2] != " ",
		ID:       m[5],
		Project:  m[6],
		Text:     m[7],
		Priority: task.P4,
	}
	if m[3] != "" {
		ln.Priority = task.Priority(m[3][0] - '0')
	}
	if m[4] != "" {
		if span, err := date.ParseTimeSpan(m[4]); err == nil {
			ln.Time = &span
		}
	}
	return ln, true
}
