// Package cmd implements the daybook CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/config"
	"github.com/vkoski/daybook/internal/date"
	"github.com/vkoski/daybook/internal/output"
	"github.com/vkoski/daybook/internal/vault"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagConfig  string
	flagJSON    bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Daily note generator with task sync",
	Long: `daybook keeps an Obsidian-style daily note in step with Todoist.
One run fetches the day's tasks, merges them into the note without touching
manual edits, and pushes completions and time changes back. Run it from a
scheduler; each invocation is a single pass.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	// Handle SilentError — exit with code, no output.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	// Determine if JSON mode is active.
	jsonMode := flagJSON
	if !jsonMode {
		jsonMode = os.Getenv("DAYBOOK_OUTPUT") == "json"
	}

	if jsonMode {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Unknown error — wrap as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	// Non-JSON mode: print to stderr.
	fmt.Fprintln(os.Stderr, err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// configPath resolves the config file location from the flag or the
// platform default.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, config.ErrNotFound):
		return nil, clierr.Newf(clierr.ConfigNotFound, "%v", err)
	case errors.Is(err, config.ErrInvalid):
		return nil, clierr.Newf(clierr.InvalidConfig, "%v", err)
	case err != nil:
		return nil, err
	}
	return cfg, nil
}

// resolveDate parses a --date flag value, defaulting to today in the
// configured timezone.
func resolveDate(flag string, loc *time.Location) (date.Date, error) {
	if flag == "" {
		return date.TodayIn(loc), nil
	}
	d, err := date.Parse(flag)
	if err != nil {
		return date.Date{}, clierr.Newf(clierr.InvalidDate, "%v", err)
	}
	return d, nil
}

// openVault builds the note storage handle for the configured vault.
func openVault(cfg *config.Config) *vault.Vault {
	return vault.New(cfg.Vault, cfg.Locale.Weekdays)
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON)
}
