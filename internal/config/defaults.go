// Package config handles the daybook configuration file.
package config

const (
	// ConfigFileName is the name of the config file within the config directory.
	ConfigFileName = "config.yml"
	// SeenLogFileName is the default calendar seen-log file name, stored
	// next to the config file.
	SeenLogFileName = "seen.jsonl"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 1

	// EnvToken is the environment variable consulted when todoist.token
	// is not set in the config file.
	EnvToken = "TODOIST_API_TOKEN"

	// DefaultTimezone is the timezone notes are generated in.
	DefaultTimezone = "Europe/Helsinki"

	// DefaultBaseURL is the Todoist REST API root.
	DefaultBaseURL = "https://api.todoist.com/rest/v2"
	// DefaultSyncURL is the Todoist Sync API root, used for completed items.
	DefaultSyncURL = "https://api.todoist.com/sync/v9"

	// DefaultStopMarker is the literal line that freezes everything below it.
	DefaultStopMarker = "<!-- stop-sync -->"

	// Default locale strings. The stock note is Finnish; all of these are
	// configurable for other languages.
	DefaultHeadingToday     = "Päivän tehtävät"
	DefaultHeadingBacklog   = "Backlog"
	DefaultTaskWordOne      = "tehtävä"
	DefaultTaskWordMany     = "tehtävää"
	DefaultCompletionPrefix = "Valmis"
	DefaultIntro            = "Kello on päiväsuunnitelmapohjan tekohetkellä {time}. Tehtäviä tänään: {count}."
)

// DefaultCallout is the verbatim block written below the intro of a
// fresh note.
const DefaultCallout = "> [!NOTE] Note to self: Ajo-ohje itselleni\n" +
	"> Tehtävät tulevat Todoistista, mutta niitä voi täällä aikatauluttaa kalenteriin kätevästi Day Plannerin avulla. Kirjoita päivän muistiinpanot myös alle."

// Default slice values (slices cannot be const).
var (
	// DefaultWeekdays lists lowercase weekday names, Monday first.
	DefaultWeekdays = []string{
		"maanantai", "tiistai", "keskiviikko", "torstai",
		"perjantai", "lauantai", "sunnuntai",
	}

	// DefaultMonths lists month names in the form used after the day
	// number ("25. elokuuta"), January first.
	DefaultMonths = []string{
		"tammikuuta", "helmikuuta", "maaliskuuta", "huhtikuuta",
		"toukokuuta", "kesäkuuta", "heinäkuuta", "elokuuta",
		"syyskuuta", "lokakuuta", "marraskuuta", "joulukuuta",
	}
)
