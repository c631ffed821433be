package note

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vkoski/daybook/internal/date"
)

// NewDocument builds a fresh daily note: a localized title, an intro
// paragraph stamped with the generation time and task count, the
// configured callout block, and empty managed sections. The preface is
// written once; later runs preserve it verbatim.
func NewDocument(day date.Date, now time.Time, taskCount int, opts Options) *Document {
	title := fmt.Sprintf("# %s, %d. %s",
		capitalize(weekdayName(day, opts)), day.Day(), monthName(day, opts))

	intro := strings.NewReplacer(
		"{time}", date.ClockOf(now).String(),
		"{count}", strconv.Itoa(taskCount),
	).Replace(opts.Intro)

	lines := []string{title, "", intro, ""}
	if opts.Callout != "" {
		lines = append(lines, strings.Split(opts.Callout, "\n")...)
		lines = append(lines, "")
	}

	return &Document{
		Blocks: []Block{
			&RawBlock{Lines: lines},
			&Section{Kind: SectionToday},
			&Section{Kind: SectionBacklog},
		},
		trailingNewline: true,
	}
}

// weekdayName returns the lowercase weekday name from the Monday-first
// locale table.
func weekdayName(d date.Date, opts Options) string {
	idx := (int(d.Weekday()) + 6) % 7
	if idx >= len(opts.Weekdays) {
		return d.Weekday().String()
	}
	return opts.Weekdays[idx]
}

func monthName(d date.Date, opts Options) string {
	idx := int(d.Month()) - 1
	if idx >= len(opts.Months) {
		return d.Month().String()
	}
	return opts.Months[idx]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
