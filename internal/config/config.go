package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/vkoski/daybook/internal/note"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("no config found (run 'daybook init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the daybook configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Vault    string         `yaml:"vault"`
	Timezone string         `yaml:"timezone"`
	Todoist  TodoistConfig  `yaml:"todoist"`
	Calendar CalendarConfig `yaml:"calendar,omitempty"`
	Note     NoteConfig     `yaml:"note"`
	Locale   LocaleConfig   `yaml:"locale"`

	// path is the absolute path of the loaded config file (not serialized).
	path string `yaml:"-"`
}

// TodoistConfig holds the task store connection settings.
type TodoistConfig struct {
	// Token may be left empty and supplied via the TODOIST_API_TOKEN
	// environment variable instead.
	Token   string `yaml:"token,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	SyncURL string `yaml:"sync_url,omitempty"`
}

// CalendarConfig holds the optional ICS feed settings. An empty feed
// URL disables calendar import entirely.
type CalendarConfig struct {
	FeedURL string `yaml:"feed_url,omitempty"`
	SeenLog string `yaml:"seen_log,omitempty"`
}

// NoteConfig holds note format settings.
type NoteConfig struct {
	StopMarker        string `yaml:"stop_marker"`
	IncludeCompletion *bool  `yaml:"include_completion,omitempty"`
}

// LocaleConfig holds the language strings rendered into notes.
type LocaleConfig struct {
	Weekdays         []string `yaml:"weekdays,flow"`
	Months           []string `yaml:"months,flow"`
	HeadingToday     string   `yaml:"heading_today"`
	HeadingBacklog   string   `yaml:"heading_backlog"`
	TaskWordOne      string   `yaml:"task_word_one"`
	TaskWordMany     string   `yaml:"task_word_many"`
	CompletionPrefix string   `yaml:"completion_prefix"`
	Intro            string   `yaml:"intro"`
	Callout          string   `yaml:"callout,omitempty"`
}

// NewDefault creates a Config with default values for the given vault
// directory.
func NewDefault(vault string) *Config {
	return &Config{
		Version:  CurrentVersion,
		Vault:    vault,
		Timezone: DefaultTimezone,
		Todoist: TodoistConfig{
			BaseURL: DefaultBaseURL,
			SyncURL: DefaultSyncURL,
		},
		Note: NoteConfig{
			StopMarker: DefaultStopMarker,
		},
		Locale: LocaleConfig{
			Weekdays:         append([]string{}, DefaultWeekdays...),
			Months:           append([]string{}, DefaultMonths...),
			HeadingToday:     DefaultHeadingToday,
			HeadingBacklog:   DefaultHeadingBacklog,
			TaskWordOne:      DefaultTaskWordOne,
			TaskWordMany:     DefaultTaskWordMany,
			CompletionPrefix: DefaultCompletionPrefix,
			Intro:            DefaultIntro,
			Callout:          DefaultCallout,
		},
	}
}

// DefaultPath returns the standard config file location,
// e.g. ~/.config/daybook/config.yml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "daybook", ConfigFileName), nil
}

// Path returns the absolute path of the loaded config file.
func (c *Config) Path() string { return c.path }

// SetPath sets the config file path.
func (c *Config) SetPath(path string) { c.path = path }

// Token returns the Todoist API token, falling back to the
// TODOIST_API_TOKEN environment variable.
func (c *Config) Token() string {
	if c.Todoist.Token != "" {
		return c.Todoist.Token
	}
	return os.Getenv(EnvToken)
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

// SeenLogPath returns the calendar seen-log location. When unset it
// lives next to the config file.
func (c *Config) SeenLogPath() string {
	if c.Calendar.SeenLog != "" {
		return c.Calendar.SeenLog
	}
	return filepath.Join(filepath.Dir(c.path), SeenLogFileName)
}

// CompletionEnabled reports whether completed tasks render a completion
// time suffix. Defaults to on.
func (c *Config) CompletionEnabled() bool {
	if c.Note.IncludeCompletion == nil {
		return true
	}
	return *c.Note.IncludeCompletion
}

// NoteOptions assembles the note format options from the config.
func (c *Config) NoteOptions(loc *time.Location) note.Options {
	return note.Options{
		StopMarker:        c.Note.StopMarker,
		HeadingToday:      c.Locale.HeadingToday,
		HeadingBacklog:    c.Locale.HeadingBacklog,
		TaskWordOne:       c.Locale.TaskWordOne,
		TaskWordMany:      c.Locale.TaskWordMany,
		CompletionPrefix:  c.Locale.CompletionPrefix,
		IncludeCompletion: c.CompletionEnabled(),
		Weekdays:          c.Locale.Weekdays,
		Months:            c.Locale.Months,
		Intro:             c.Locale.Intro,
		Callout:           c.Locale.Callout,
		Location:          loc,
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Vault == "" {
		return fmt.Errorf("%w: vault is required", ErrInvalid)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
	}
	if err := c.validateTodoist(); err != nil {
		return err
	}
	if err := c.validateCalendar(); err != nil {
		return err
	}
	if c.Note.StopMarker == "" {
		return fmt.Errorf("%w: note.stop_marker is required", ErrInvalid)
	}
	return c.validateLocale()
}

func (c *Config) validateTodoist() error {
	if err := validateURL(c.Todoist.BaseURL); err != nil {
		return fmt.Errorf("%w: todoist.base_url: %w", ErrInvalid, err)
	}
	if err := validateURL(c.Todoist.SyncURL); err != nil {
		return fmt.Errorf("%w: todoist.sync_url: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) validateCalendar() error {
	if c.Calendar.FeedURL == "" {
		return nil
	}
	if err := validateURL(c.Calendar.FeedURL); err != nil {
		return fmt.Errorf("%w: calendar.feed_url: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) validateLocale() error {
	if n := len(c.Locale.Weekdays); n != 7 { //nolint:mnd // days per week
		return fmt.Errorf("%w: locale.weekdays must list 7 names, got %d", ErrInvalid, n)
	}
	if n := len(c.Locale.Months); n != 12 { //nolint:mnd // months per year
		return fmt.Errorf("%w: locale.months must list 12 names, got %d", ErrInvalid, n)
	}
	for name, v := range map[string]string{
		"locale.heading_today":     c.Locale.HeadingToday,
		"locale.heading_backlog":   c.Locale.HeadingBacklog,
		"locale.task_word_one":     c.Locale.TaskWordOne,
		"locale.task_word_many":    c.Locale.TaskWordMany,
		"locale.completion_prefix": c.Locale.CompletionPrefix,
		"locale.intro":             c.Locale.Intro,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalid, name)
		}
	}
	if c.Locale.HeadingToday == c.Locale.HeadingBacklog {
		return fmt.Errorf("%w: locale headings must differ", ErrInvalid)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	return nil
}

// Init writes a fresh default config for the given vault to path,
// creating the config directory on demand.
func Init(path, vault string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(vault)
	cfg.SetPath(absPath)

	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back to its file.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), dirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(c.path, data, fileMode); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads and validates the config file at path. Optional fields
// left out of the file are filled with defaults before validation.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.path = absPath
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued optional fields so a minimal config
// file (vault plus token) works out of the box.
func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Todoist.BaseURL == "" {
		c.Todoist.BaseURL = DefaultBaseURL
	}
	if c.Todoist.SyncURL == "" {
		c.Todoist.SyncURL = DefaultSyncURL
	}
	if c.Note.StopMarker == "" {
		c.Note.StopMarker = DefaultStopMarker
	}
	if len(c.Locale.Weekdays) == 0 {
		c.Locale.Weekdays = append([]string{}, DefaultWeekdays...)
	}
	if len(c.Locale.Months) == 0 {
		c.Locale.Months = append([]string{}, DefaultMonths...)
	}
	if c.Locale.HeadingToday == "" {
		c.Locale.HeadingToday = DefaultHeadingToday
	}
	if c.Locale.HeadingBacklog == "" {
		c.Locale.HeadingBacklog = DefaultHeadingBacklog
	}
	if c.Locale.TaskWordOne == "" {
		c.Locale.TaskWordOne = DefaultTaskWordOne
	}
	if c.Locale.TaskWordMany == "" {
		c.Locale.TaskWordMany = DefaultTaskWordMany
	}
	if c.Locale.CompletionPrefix == "" {
		c.Locale.CompletionPrefix = DefaultCompletionPrefix
	}
	if c.Locale.Intro == "" {
		c.Locale.Intro = DefaultIntro
	}
}
