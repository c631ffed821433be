package reconcile

import (
	"sort"
	"strings"
)

// sortTree orders entries the way they render: top-level tasks grouped
// by project label with unlabeled tasks first, then inside each group by
// priority, scheduled time and creation time. Children are sorted by the
// same rules beneath their parent.
func sortTree(roots []*entry) {
	sort.SliceStable(roots, func(i, j int) bool {
		return lessEntries(roots[i], roots[j])
	})
	for _, e := range roots {
		sortChildren(e)
	}
}

func sortChildren(e *entry) {
	sort.SliceStable(e.children, func(i, j int) bool {
		return lessSiblings(e.children[i], e.children[j])
	})
	for _, c := range e.children {
		sortChildren(c)
	}
}

func lessEntries(a, b *entry) bool {
	if c := compareLabels(a.t.Project, b.t.Project); c != 0 {
		return c < 0
	}
	return lessSiblings(a, b)
}

func lessSiblings(a, b *entry) bool {
	if a.t.Priority != b.t.Priority {
		return a.t.Priority < b.t.Priority
	}
	if c := compareTimes(a, b); c != 0 {
		return c < 0
	}
	if !a.t.CreatedAt.Equal(b.t.CreatedAt) {
		return a.t.CreatedAt.After(b.t.CreatedAt) // newest first
	}
	return a.t.ID < b.t.ID
}

// compareLabels puts unlabeled tasks before labeled ones, then sorts
// labels alphabetically.
func compareLabels(a, b string) int {
	if (a == "") != (b == "") {
		if a == "" {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// compareTimes orders by rendered start time; lines without a time sort
// last.
func compareTimes(a, b *entry) int {
	at, bt := a.line.Time, b.line.Time
	if at == nil && bt == nil {
		return 0
	}
	if at == nil {
		return 1
	}
	if bt == nil {
		return -1
	}
	return int(at.Start) - int(bt.Start)
}
