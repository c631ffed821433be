package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultIsValid(t *testing.T) {
	cfg := NewDefault("/vault")
	assert.NoError(t, cfg.Validate())
}

func TestInitLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daybook", "config.yml")

	created, err := Init(path, "/home/user/vault")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, created.Version)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/user/vault", loaded.Vault)
	assert.Equal(t, DefaultTimezone, loaded.Timezone)
	assert.Equal(t, DefaultStopMarker, loaded.Note.StopMarker)
	assert.Equal(t, DefaultWeekdays, loaded.Locale.Weekdays)
	assert.Equal(t, DefaultIntro, loaded.Locale.Intro)
	assert.True(t, loaded.CompletionEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMinimalConfigFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	minimal := "version: 1\nvault: /vault\ntodoist:\n  token: abc\n"
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Todoist.BaseURL)
	assert.Equal(t, DefaultSyncURL, cfg.Todoist.SyncURL)
	assert.Equal(t, DefaultHeadingToday, cfg.Locale.HeadingToday)
	assert.Len(t, cfg.Locale.Months, 12)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Helsinki", loc.String())
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"wrong version", func(c *Config) { c.Version = 2 }},
		{"missing vault", func(c *Config) { c.Vault = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad base url", func(c *Config) { c.Todoist.BaseURL = "ftp://example.com" }},
		{"bad feed url", func(c *Config) { c.Calendar.FeedURL = "not a url\x7f" }},
		{"missing stop marker", func(c *Config) { c.Note.StopMarker = "" }},
		{"short weekday list", func(c *Config) { c.Locale.Weekdays = []string{"ma", "ti"} }},
		{"short month list", func(c *Config) { c.Locale.Months = c.Locale.Months[:3] }},
		{"blank heading", func(c *Config) { c.Locale.HeadingToday = "" }},
		{"identical headings", func(c *Config) { c.Locale.HeadingBacklog = c.Locale.HeadingToday }},
		{"blank intro", func(c *Config) { c.Locale.Intro = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefault("/vault")
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestTokenFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvToken, "env-token")

	cfg := NewDefault("/vault")
	assert.Equal(t, "env-token", cfg.Token())

	cfg.Todoist.Token = "file-token"
	assert.Equal(t, "file-token", cfg.Token())
}

func TestSeenLogPathDefaultsNextToConfig(t *testing.T) {
	cfg := NewDefault("/vault")
	cfg.SetPath("/home/user/.config/daybook/config.yml")
	assert.Equal(t, filepath.Join("/home/user/.config/daybook", SeenLogFileName), cfg.SeenLogPath())

	cfg.Calendar.SeenLog = "/elsewhere/seen.jsonl"
	assert.Equal(t, "/elsewhere/seen.jsonl", cfg.SeenLogPath())
}

func TestIncludeCompletionTristate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	off := "version: 1\nvault: /vault\nnote:\n  include_completion: false\n"
	require.NoError(t, os.WriteFile(path, []byte(off), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.CompletionEnabled())
}

func TestNoteOptions(t *testing.T) {
	cfg := NewDefault("/vault")
	opts := cfg.NoteOptions(time.UTC)

	assert.Equal(t, DefaultStopMarker, opts.StopMarker)
	assert.Equal(t, DefaultHeadingToday, opts.HeadingToday)
	assert.Equal(t, DefaultTaskWordMany, opts.TaskWordMany)
	assert.True(t, opts.IncludeCompletion)
	assert.Equal(t, time.UTC, opts.Location)
	assert.Len(t, opts.Weekdays, 7)
}

func TestSavePreservesCustomValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := NewDefault("/vault")
	cfg.SetPath(path)
	cfg.Timezone = "UTC"
	cfg.Calendar.FeedURL = "https://calendar.example.com/feed.ics"
	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", loaded.Timezone)
	assert.Equal(t, "https://calendar.example.com/feed.ics", loaded.Calendar.FeedURL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
