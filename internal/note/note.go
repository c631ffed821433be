// Package note parses and renders daily notes. A note is an ordered
// sequence of verbatim regions and managed task sections, with an
// optional frozen tail below a stop marker that the sync never touches.
package note

import (
	"time"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/task"
)

// Options carries the marker and locale strings that shape a note.
// All values come from configuration.
type Options struct {
	StopMarker        string
	HeadingToday      string
	HeadingBacklog    string
	TaskWordOne       string
	TaskWordMany      string
	CompletionPrefix  string
	IncludeCompletion bool
	Weekdays          []string // Monday first, lowercase
	Months            []string // January first, in the form used after "25."
	Intro             string   // first paragraph template, {time} and {count} placeholders
	Callout           string   // verbatim block below the intro, may be empty
	Location          *time.Location
}

// SectionKind identifies a managed section.
type SectionKind int

// Managed section kinds.
const (
	SectionToday SectionKind = iota
	SectionBacklog
)

// Block is one region of a note: either verbatim text or a managed section.
type Block interface{ isBlock() }

// RawBlock is a run of verbatim lines the sync never rewrites.
type RawBlock struct {
	Lines []string
}

func (*RawBlock) isBlock() {}

// Section is a managed heading block rebuilt from the snapshot on every run.
type Section struct {
	Kind SectionKind

	// Lines holds the managed task lines in document order. After
	// reconciliation the order is the rendered order: top-level tasks
	// grouped by project label, children immediately after their parent.
	Lines []Line

	// Orphans are id-less lines found inside the section. They are
	// preserved at the end of the section in their original order and
	// never reconciled.
	Orphans []string
}

func (*Section) isBlock() {}

// Line is one managed task line, identified by its embedded task id.
type Line struct {
	ID          string
	Text        string
	Project     string
	Priority    task.Priority
	Time        *date.TimeSpan
	Checked     bool
	CompletedAt *date.TimeOfDay
	Indent      int
}

// Document is the structured form of a daily note.
type Document struct {
	Blocks []Block

	// Frozen holds the stop marker line and everything below it,
	// verbatim. nil means the note has no stop marker.
	Frozen []string

	// trailingNewline records whether the source text ended with a
	// newline so Render reproduces the tail byte-for-byte.
	trailingNewline bool
}

// Section returns the managed section of the given kind, or nil.
func (d *Document) Section(kind SectionKind) *Section {
	for _, b := range d.Blocks {
		if sec, ok := b.(*Section); ok && sec.Kind == kind {
			return sec
		}
	}
	return nil
}

// EnsureSection returns the section of the given kind, creating it when
// missing. A created today-section is placed before the backlog section;
// anything else is appended after the existing blocks, above the frozen
// tail.
func (d *Document) EnsureSection(kind SectionKind) *Section {
	if sec := d.Section(kind); sec != nil {
		return sec
	}
	sec := &Section{Kind: kind}
	if kind == SectionToday {
		for i, b := range d.Blocks {
			if existing, ok := b.(*Section); ok && existing.Kind == SectionBacklog {
				d.Blocks = append(d.Blocks[:i], append([]Block{sec}, d.Blocks[i:]...)...)
				return sec
			}
		}
	}
	d.Blocks = append(d.Blocks, sec)
	return sec
}

// CountTasks returns the number of managed lines in the section of the
// given kind.
func (d *Document) CountTasks(kind SectionKind) int {
	if sec := d.Section(kind); sec != nil {
		return len(sec.Lines)
	}
	return 0
}

// FrozenIDs returns the task ids embedded in the frozen tail. Lines
// carrying these ids are owned by the frozen region: they are excluded
// from managed rendering and never produce mutations.
func (d *Document) FrozenIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, line := range d.Frozen {
		for _, m := range dataIDRE.FindAllStringSubmatch(line, -1) {
			ids[m[1]] = true
		}
	}
	return ids
}
