package calendar

import (
	"strings"
	"time"
)

const (
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405"
	icsUTCLayout      = "20060102T150405Z"
)

// Event is one VEVENT from an iCalendar feed. Start and End are
// materialized instants; AllDay marks VALUE=DATE events, which carry no
// clock time.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// ParseFeed extracts the events from iCalendar text. It is total:
// malformed properties and events without a usable start are skipped,
// never reported. Times without zone information are read in loc.
func ParseFeed(text string, loc *time.Location) []Event {
	var events []Event
	var cur *Event

	for _, line := range unfold(text) {
		name, params, value := splitProperty(line)
		switch name {
		case "BEGIN":
			if value == "VEVENT" {
				cur = &Event{}
			}
		case "END":
			if value == "VEVENT" && cur != nil {
				if !cur.Start.IsZero() {
					events = append(events, *cur)
				}
				cur = nil
			}
		case "UID":
			if cur != nil {
				cur.UID = value
			}
		case "SUMMARY":
			if cur != nil {
				cur.Summary = unescapeText(value)
			}
		case "DTSTART":
			if cur == nil {
				continue
			}
			if at, allDay, err := parseStamp(value, params, loc); err == nil {
				cur.Start = at
				cur.AllDay = allDay
			}
		case "DTEND":
			if cur == nil {
				continue
			}
			if at, _, err := parseStamp(value, params, loc); err == nil {
				cur.End = at
			}
		}
	}
	return events
}

// unfold splits the feed into logical lines. A line starting with a
// space or tab continues the previous one (RFC 5545 folding).
func unfold(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var lines []string
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(lines) > 0 {
				lines[len(lines)-1] += line[1:]
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitProperty breaks "NAME;PARAM=VAL;...:value" into its parts. The
// property name and parameter keys are case folded to upper.
func splitProperty(line string) (string, map[string]string, string) {
	head, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", nil, ""
	}
	parts := strings.Split(head, ";")
	name := strings.ToUpper(strings.TrimSpace(parts[0]))

	var params map[string]string
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return name, params, value
}

// parseStamp reads a DTSTART/DTEND value in the forms feeds actually
// emit: VALUE=DATE, UTC ("...Z"), TZID-qualified, and floating local
// time. An unknown TZID falls back to the configured zone.
func parseStamp(value string, params map[string]string, loc *time.Location) (time.Time, bool, error) {
	if params["VALUE"] == "DATE" || len(value) == len(icsDateLayout) {
		at, err := time.ParseInLocation(icsDateLayout, value, loc)
		return at, true, err
	}
	if strings.HasSuffix(value, "Z") {
		at, err := time.Parse(icsUTCLayout, value)
		return at, false, err
	}
	zone := loc
	if tzid := params["TZID"]; tzid != "" {
		if named, err := time.LoadLocation(tzid); err == nil {
			zone = named
		}
	}
	at, err := time.ParseInLocation(icsDateTimeLayout, value, zone)
	return at, false, err
}

// unescapeText reverses RFC 5545 text escaping.
func unescapeText(s string) string {
	repl := strings.NewReplacer(
		`\\`, `\`,
		`\;`, ";",
		`\,`, ",",
		`\n`, "\n",
		`\N`, "\n",
	)
	return repl.Replace(s)
}
