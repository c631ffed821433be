// Package reconcile merges a remote task snapshot into an existing daily
// note. It is a pure, total function over its inputs: no I/O, no clock,
// no failure modes. Malformed or missing data falls back to defaults
// instead of erroring.
package reconcile

import (
	"fmt"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/note"
	"github.com/vkoski/daybook/internal/task"
)

// MutationKind names an outbound change to the remote task store.
type MutationKind string

// Mutation kinds.
const (
	MutationComplete   MutationKind = "complete"
	MutationReschedule MutationKind = "reschedule"
)

// Mutation is a queued note-to-remote change. Reconcile only computes
// mutations; applying them is the caller's job, so a dry run can skip
// application while still reporting what would happen.
type Mutation struct {
	Kind MutationKind   `json:"kind"`
	ID   string         `json:"id"`
	Time *date.TimeSpan `json:"time,omitempty"`
	Text string         `json:"text"`
}

func (m Mutation) String() string {
	if m.Kind == MutationReschedule {
		return fmt.Sprintf("reschedule %s to %s (%s)", m.ID, m.Time, m.Text)
	}
	return fmt.Sprintf("%s %s (%s)", m.Kind, m.ID, m.Text)
}

// Reconcile merges the snapshot into the document and returns the
// mutations to apply remotely. The managed sections are rebuilt from the
// snapshot; everything else in the document, including content at or
// below the stop marker, is left untouched.
//
// Direction of truth is fixed per field. The remote store owns text,
// priority, project and completion state. The note owns two things only:
// a checked box on an incomplete task queues a completion, and an edited
// scheduled time queues a reschedule. A checked box stays checked in the
// rendered note even before the remote confirms it, and an unchecked box
// never reopens a remotely completed task.
func Reconcile(snapshot []task.Task, doc *note.Document, today date.Date) []Mutation {
	frozen := doc.FrozenIDs()
	existing := existingLines(doc)

	byID := make(map[string]task.Task, len(snapshot))
	for _, t := range snapshot {
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = t
		}
	}

	muts := collectMutations(doc, byID, frozen)

	roots := buildTree(snapshot, existing, today)
	roots = dedupe(roots, existing)
	sortTree(roots)

	var todayLines, backlogLines []note.Line
	for _, e := range roots {
		dst := &todayLines
		if e.section == note.SectionBacklog {
			dst = &backlogLines
		}
		emit(e, 0, frozen, dst)
	}

	doc.EnsureSection(note.SectionToday).Lines = todayLines
	doc.EnsureSection(note.SectionBacklog).Lines = backlogLines

	return muts
}

// collectMutations walks the existing managed lines in document order and
// derives the note-to-remote changes. Lines whose task is gone from the
// snapshot, calendar-sourced pseudo-tasks and ids owned by the frozen
// tail never produce mutations.
func collectMutations(doc *note.Document, byID map[string]task.Task, frozen map[string]bool) []Mutation {
	var muts []Mutation
	seen := make(map[string]bool)

	add := func(m Mutation) {
		key := string(m.Kind) + "|" + m.ID
		if !seen[key] {
			seen[key] = true
			muts = append(muts, m)
		}
	}

	for _, b := range doc.Blocks {
		sec, ok := b.(*note.Section)
		if !ok {
			continue
		}
		for _, ln := range sec.Lines {
			t, ok := byID[ln.ID]
			if !ok || !t.Mutable() || frozen[ln.ID] {
				continue
			}
			if m, ok := completionMutation(ln, t); ok {
				add(m)
			}
			if m, ok := rescheduleMutation(ln, t); ok {
				add(m)
			}
		}
	}
	return muts
}

// completionMutation fires when the note shows a task done that the
// remote still has open. The opposite direction never mutates: an
// unchecked box does not reopen a remotely completed task.
func completionMutation(ln note.Line, t task.Task) (Mutation, bool) {
	if !ln.Checked || t.Completed {
		return Mutation{}, false
	}
	return Mutation{Kind: MutationComplete, ID: t.ID, Text: t.Text}, true
}

// rescheduleMutation fires when the note carries a scheduled time that
// differs from the remote one. Removing a time is not an edit, and a
// remotely completed task keeps its recorded time.
func rescheduleMutation(ln note.Line, t task.Task) (Mutation, bool) {
	if ln.Time == nil || t.Completed || sameTime(ln.Time, t.Time) {
		return Mutation{}, false
	}
	return Mutation{Kind: MutationReschedule, ID: t.ID, Time: ln.Time, Text: t.Text}, true
}

func sameTime(a, b *date.TimeSpan) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// entry is one snapshot task placed in the render tree.
type entry struct {
	t        task.Task
	line     note.Line
	hasLine  bool
	section  note.SectionKind
	children []*entry
}

// buildTree resolves which snapshot tasks render and where. A task
// renders in the today group when due today, in the backlog group when
// overdue and still open. Children of a rendered task render beneath it
// in the parent's group regardless of their own due date; a child whose
// parent does not render falls back to its own due date at top level.
func buildTree(snapshot []task.Task, existing map[string]note.Line, today date.Date) []*entry {
	// First copy wins on duplicate ids so a snapshot glitch cannot
	// render one task twice.
	entries := make(map[string]*entry, len(snapshot))
	for _, t := range snapshot {
		if _, ok := entries[t.ID]; !ok {
			entries[t.ID] = &entry{t: t}
		}
	}

	// section resolution walks parent chains, so memoize and guard
	// against reference cycles in malformed input
	type placement struct {
		section  note.SectionKind
		rendered bool
		asChild  bool
	}
	resolved := make(map[string]placement, len(entries))
	visiting := make(map[string]bool)

	var resolve func(e *entry) placement
	resolve = func(e *entry) placement {
		if p, ok := resolved[e.t.ID]; ok {
			return p
		}
		if visiting[e.t.ID] {
			return placement{}
		}
		visiting[e.t.ID] = true
		defer delete(visiting, e.t.ID)

		var p placement
		if parent, ok := entries[e.t.ParentID]; ok && e.t.ParentID != e.t.ID {
			if pp := resolve(parent); pp.rendered {
				p = placement{section: pp.section, rendered: true, asChild: true}
			}
		}
		if !p.rendered {
			switch {
			case e.t.DueOn(today):
				p = placement{section: note.SectionToday, rendered: true}
			case e.t.Due != nil && e.t.DueBefore(today) && !e.t.Completed:
				p = placement{section: note.SectionBacklog, rendered: true}
			}
		}
		resolved[e.t.ID] = p
		return p
	}

	var roots []*entry
	placed := make(map[string]bool, len(entries))
	for _, t := range snapshot {
		e := entries[t.ID]
		if placed[t.ID] {
			continue
		}
		placed[t.ID] = true
		p := resolve(e)
		if !p.rendered {
			continue
		}
		e.section = p.section
		e.line, e.hasLine = lineFor(e.t, existing)
		if p.asChild {
			parent := entries[e.t.ParentID]
			parent.children = append(parent.children, e)
		} else {
			roots = append(roots, e)
		}
	}
	return roots
}

// lineFor builds the rendered line for a task, folding in state the note
// owns: a checked box stays checked, and a user-edited time on a native
// task replaces the remote time.
func lineFor(t task.Task, existing map[string]note.Line) (note.Line, bool) {
	ln := note.Line{
		ID:       t.ID,
		Text:     t.Text,
		Project:  t.Project,
		Priority: t.Priority,
		Time:     t.Time,
		Checked:  t.Completed,
	}
	if t.CompletedAt != nil {
		at := date.ClockOf(*t.CompletedAt)
		ln.CompletedAt = &at
	}

	old, ok := existing[t.ID]
	if !ok {
		return ln, false
	}
	if old.Checked {
		ln.Checked = true
	}
	if old.Time != nil && t.Mutable() && !t.Completed {
		ln.Time = old.Time
	}
	return ln, true
}

// dedupe collapses top-level entries that would render with identical
// normalized text and time. This guards against one logical event
// arriving both as a native task and as a calendar import. The kept
// entry is the one already present in the note, then the earliest
// created, then the native one.
func dedupe(roots []*entry, existing map[string]note.Line) []*entry {
	keeper := make(map[string]*entry)
	for _, e := range roots {
		key := e.t.DedupKey()
		cur, ok := keeper[key]
		if !ok || prefer(e, cur) {
			keeper[key] = e
		}
	}

	out := roots[:0]
	for _, e := range roots {
		if keeper[e.t.DedupKey()] == e {
			out = append(out, e)
		}
	}
	return out
}

// prefer reports whether a should replace b as the kept duplicate.
func prefer(a, b *entry) bool {
	if a.hasLine != b.hasLine {
		return a.hasLine
	}
	if !a.t.CreatedAt.Equal(b.t.CreatedAt) {
		return a.t.CreatedAt.Before(b.t.CreatedAt)
	}
	if a.t.Mutable() != b.t.Mutable() {
		return a.t.Mutable()
	}
	return a.t.ID < b.t.ID
}

// emit appends the entry's line and its subtree in render order. Ids
// owned by the frozen tail are skipped, subtree included, so a task
// never appears twice in one document.
func emit(e *entry, indent int, frozen map[string]bool, dst *[]note.Line) {
	if frozen[e.t.ID] {
		return
	}
	ln := e.line
	ln.Indent = indent
	*dst = append(*dst, ln)
	for _, c := range e.children {
		emit(c, indent+1, frozen, dst)
	}
}

// existingLines indexes the document's managed lines by task id.
func existingLines(doc *note.Document) map[string]note.Line {
	lines := make(map[string]note.Line)
	for _, b := range doc.Blocks {
		if sec, ok := b.(*note.Section); ok {
			for _, ln := range sec.Lines {
				if _, ok := lines[ln.ID]; !ok {
					lines[ln.ID] = ln
				}
			}
		}
	}
	return lines
}
