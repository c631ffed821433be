package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/config"
	"github.com/vkoski/daybook/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long:  `View the full configuration, get a specific key, or set a writable value.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"vault": {
			get:      func(c *config.Config) any { return c.Vault },
			set:      func(c *config.Config, v string) error { c.Vault = v; return nil },
			writable: true,
		},
		"timezone": {
			get:      func(c *config.Config) any { return c.Timezone },
			set:      func(c *config.Config, v string) error { c.Timezone = v; return nil },
			writable: true,
		},
		"todoist.token": {
			get:      func(c *config.Config) any { return c.Todoist.Token },
			set:      func(c *config.Config, v string) error { c.Todoist.Token = v; return nil },
			writable: true,
		},
		"todoist.base_url": {
			get:      func(c *config.Config) any { return c.Todoist.BaseURL },
			set:      func(c *config.Config, v string) error { c.Todoist.BaseURL = v; return nil },
			writable: true,
		},
		"todoist.sync_url": {
			get:      func(c *config.Config) any { return c.Todoist.SyncURL },
			set:      func(c *config.Config, v string) error { c.Todoist.SyncURL = v; return nil },
			writable: true,
		},
		"calendar.feed_url": {
			get:      func(c *config.Config) any { return c.Calendar.FeedURL },
			set:      func(c *config.Config, v string) error { c.Calendar.FeedURL = v; return nil },
			writable: true,
		},
		"calendar.seen_log": {
			get:      func(c *config.Config) any { return c.Calendar.SeenLog },
			set:      func(c *config.Config, v string) error { c.Calendar.SeenLog = v; return nil },
			writable: true,
		},
		"note.stop_marker": {
			get:      func(c *config.Config) any { return c.Note.StopMarker },
			set:      func(c *config.Config, v string) error { c.Note.StopMarker = v; return nil },
			writable: true,
		},
		"note.include_completion": {
			get: func(c *config.Config) any { return c.CompletionEnabled() },
			set: func(c *config.Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid note.include_completion %q: must be true or false", v)
				}
				c.Note.IncludeCompletion = &b
				return nil
			},
			writable: true,
		},
		"locale.heading_today": {
			get:      func(c *config.Config) any { return c.Locale.HeadingToday },
			set:      func(c *config.Config, v string) error { c.Locale.HeadingToday = v; return nil },
			writable: true,
		},
		"locale.heading_backlog": {
			get:      func(c *config.Config) any { return c.Locale.HeadingBacklog },
			set:      func(c *config.Config, v string) error { c.Locale.HeadingBacklog = v; return nil },
			writable: true,
		},
		"locale.task_word_one": {
			get:      func(c *config.Config) any { return c.Locale.TaskWordOne },
			set:      func(c *config.Config, v string) error { c.Locale.TaskWordOne = v; return nil },
			writable: true,
		},
		"locale.task_word_many": {
			get:      func(c *config.Config) any { return c.Locale.TaskWordMany },
			set:      func(c *config.Config, v string) error { c.Locale.TaskWordMany = v; return nil },
			writable: true,
		},
		"locale.completion_prefix": {
			get:      func(c *config.Config) any { return c.Locale.CompletionPrefix },
			set:      func(c *config.Config, v string) error { c.Locale.CompletionPrefix = v; return nil },
			writable: true,
		},
		"locale.intro": {
			get:      func(c *config.Config) any { return c.Locale.Intro },
			set:      func(c *config.Config, v string) error { c.Locale.Intro = v; return nil },
			writable: true,
		},
		"locale.callout": {
			get:      func(c *config.Config) any { return c.Locale.Callout },
			set:      func(c *config.Config, v string) error { c.Locale.Callout = v; return nil },
			writable: true,
		},
		"locale.weekdays": {
			get: func(c *config.Config) any { return c.Locale.Weekdays },
		},
		"locale.months": {
			get: func(c *config.Config) any { return c.Locale.Months },
		},
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"vault",
		"timezone",
		"todoist.token",
		"todoist.base_url",
		"todoist.sync_url",
		"calendar.feed_url",
		"calendar.seen_log",
		"note.stop_marker",
		"note.include_completion",
		"locale.heading_today",
		"locale.heading_backlog",
		"locale.task_word_one",
		"locale.task_word_many",
		"locale.completion_prefix",
		"locale.intro",
		"locale.callout",
		"locale.weekdays",
		"locale.months",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-26s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	accessors := configAccessors()
	acc, ok := accessors[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	accessors := configAccessors()
	acc, ok := accessors[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return clierr.Newf(clierr.InvalidConfig, "%v", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
