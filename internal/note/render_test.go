package note

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/task"
)

func span(s string) *date.TimeSpan {
	sp, err := date.ParseTimeSpan(s)
	if err != nil {
		panic(err)
	}
	return &sp
}

func TestRenderLineVariants(t *testing.T) {
	opts := testOptions()

	cases := []struct {
		name string
		line Line
		want string
	}{
		{
			name: "plain",
			line: Line{ID: "1", Text: "Osta maitoa", Priority: task.P4},
			want: `- [ ] <span data-id="1" data-project="">Osta maitoa</span>`,
		},
		{
			name: "priority and time",
			line: Line{ID: "2", Text: "Palaveri", Priority: task.P1, Time: span("09:00")},
			want: `- [ ] <i d="p1">p1</i> 09:00 <span data-id="2" data-project="">Palaveri</span>`,
		},
		{
			name: "time span and label",
			line: Line{ID: "3", Text: "Työpaja", Priority: task.P4, Time: span("10:00 - 11:30"), Project: "Työ"},
			want: `- [ ] 10:00 - 11:30 <span data-id="3" data-project="Työ">Työpaja</span>`,
		},
		{
			name: "checked subtask",
			line: Line{ID: "4", Text: "Alaluku", Priority: task.P4, Checked: true, Indent: 1},
			want: "\t- [x] <span data-id=\"4\" data-project=\"\">Alaluku</span>",
		},
		{
			name: "markup passes through",
			line: Line{ID: "5", Text: "Lue [linkki](https://example.com) **nyt**", Priority: task.P4},
			want: `- [ ] <span data-id="5" data-project="">Lue [linkki](https://example.com) **nyt**</span>`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renderLine(tc.line, opts))
		})
	}
}

func TestRenderCompletionSuffix(t *testing.T) {
	opts := testOptions()
	done := date.NewTimeOfDay(10, 12)
	line := Line{ID: "7", Text: "Tehty", Priority: task.P4, Checked: true, CompletedAt: &done}

	assert.Equal(t,
		`- [x] <span data-id="7" data-project="">Tehty</span>`,
		renderLine(line, opts))

	opts.IncludeCompletion = true
	assert.Equal(t,
		`- [x] <span data-id="7" data-project="">Tehty</span> (Valmis 10:12)`,
		renderLine(line, opts))
}

func TestRenderHeadingCounts(t *testing.T) {
	opts := testOptions()

	empty := &Section{Kind: SectionBacklog}
	assert.Equal(t, "## Backlog (0 tehtävää)", renderSection(empty, opts)[0])

	one := &Section{Kind: SectionToday, Lines: []Line{{ID: "1", Priority: task.P4}}}
	assert.Equal(t, "## Päivän tehtävät (1 tehtävä)", renderSection(one, opts)[0])

	two := &Section{Kind: SectionToday, Lines: []Line{
		{ID: "1", Priority: task.P4}, {ID: "2", Priority: task.P4},
	}}
	assert.Equal(t, "## Päivän tehtävät (2 tehtävää)", renderSection(two, opts)[0])
}

func TestRenderLabelGroups(t *testing.T) {
	opts := testOptions()
	sec := &Section{Kind: SectionToday, Lines: []Line{
		{ID: "1", Text: "Ilman luokkaa", Priority: task.P4},
		{ID: "2", Text: "Palaveri", Priority: task.P4, Project: "Työ"},
		{ID: "3", Text: "Alakohta", Priority: task.P4, Project: "", Indent: 1},
		{ID: "4", Text: "Kauppa", Priority: task.P4, Project: "Koti"},
	}}

	got := strings.Join(renderSection(sec, opts), "\n")
	want := strings.Join([]string{
		"## Päivän tehtävät (4 tehtävää)",
		"",
		`- [ ] <span data-id="1" data-project="">Ilman luokkaa</span>`,
		"",
		"### Työ (2 tehtävää)",
		"",
		`- [ ] <span data-id="2" data-project="Työ">Palaveri</span>`,
		"\t- [ ] <span data-id=\"3\" data-project=\"\">Alakohta</span>",
		"",
		"### Koti (1 tehtävä)",
		"",
		`- [ ] <span data-id="4" data-project="Koti">Kauppa</span>`,
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderDeterministic(t *testing.T) {
	opts := testOptions()
	d := NewDocument(date.New(2026, time.August, 25), time.Date(2026, time.August, 25, 7, 30, 0, 0, time.UTC), 3, opts)
	d.Section(SectionToday).Lines = []Line{
		{ID: "1", Text: "A", Priority: task.P1, Time: span("09:00")},
	}

	assert.Equal(t, Render(d, opts), Render(d, opts))
}

func TestRenderParseRoundTripStable(t *testing.T) {
	opts := testOptions()
	d := NewDocument(date.New(2026, time.August, 25), time.Date(2026, time.August, 25, 7, 30, 0, 0, time.UTC), 2, opts)
	d.Section(SectionToday).Lines = []Line{
		{ID: "101", Text: "Kirjoita raportti", Priority: task.P1, Time: span("09:00")},
		{ID: "102", Text: "Alaluku", Priority: task.P4, Indent: 1, Checked: true},
	}
	d.Section(SectionBacklog).Lines = []Line{
		{ID: "103", Text: "Siivoa autotalli", Priority: task.P4, Project: "Koti"},
	}
	d.Frozen = []string{"<!-- stop-sync -->", "omat rivit pysyvät"}

	first := Render(d, opts)
	second := Render(Parse(first, opts), opts)
	assert.Equal(t, first, second)
}

func TestRenderFrozenTailByteIdentical(t *testing.T) {
	opts := testOptions()
	tail := "<!-- stop-sync -->\n  outolla  sisennyksellä\n- [ ] <span data-id=\"99\" data-project=\"\">jäädytetty</span>"
	text := "## Päivän tehtävät (0 tehtävää)\n\n" + tail

	out := Render(Parse(text, opts), opts)
	assert.True(t, strings.HasSuffix(out, tail))
	assert.False(t, strings.HasSuffix(out, tail+"\n"))
}

func TestNewDocumentTemplate(t *testing.T) {
	opts := testOptions()
	day := date.New(2026, time.August, 25)
	now := time.Date(2026, time.August, 25, 7, 30, 0, 0, time.UTC)

	out := Render(NewDocument(day, now, 3, opts), opts)

	assert.True(t, strings.HasPrefix(out, "# Tiistai, 25. elokuuta\n"))
	assert.Contains(t, out, "Kello on päiväsuunnitelmapohjan tekohetkellä 07:30. Tehtäviä tänään: 3.")
	assert.Contains(t, out, "> [!NOTE] Ajo-ohje")
	assert.Contains(t, out, "## Päivän tehtävät (0 tehtävää)")
	assert.Contains(t, out, "## Backlog (0 tehtävää)")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestEnsureSectionPlacesTodayBeforeBacklog(t *testing.T) {
	d := Parse("## Backlog (0 tehtävää)\n", testOptions())
	require.Nil(t, d.Section(SectionToday))

	d.EnsureSection(SectionToday)

	var kinds []SectionKind
	for _, b := range d.Blocks {
		if sec, ok := b.(*Section); ok {
			kinds = append(kinds, sec.Kind)
		}
	}
	assert.Equal(t, []SectionKind{SectionToday, SectionBacklog}, kinds)
}
