package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/output"
	"github.com/vkoski/daybook/internal/pager"
)

var (
	previewDate string
	previewRaw  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "View a daily note in the terminal",
	Long: `Renders the note for a date as styled markdown in a scrollable pager.
Use --raw for the unrendered note text.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewDate, "date", "", "target date (YYYY-MM-DD, default today)")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "print the raw note text")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return clierr.Newf(clierr.InvalidConfig, "%v", err)
	}
	day, err := resolveDate(previewDate, loc)
	if err != nil {
		return err
	}

	v := openVault(cfg)
	path := v.NotePath(day)
	text, err := v.Read(day)
	if err != nil {
		return err
	}
	if text == "" {
		return clierr.Newf(clierr.NoteNotFound, "no note for %s (expected at %s)", day, path)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"date":      day,
			"note_path": path,
			"text":      text,
		})
	}
	if previewRaw {
		fmt.Fprint(os.Stdout, text)
		return nil
	}

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	width := 80 //nolint:mnd // default wrap width when not a terminal
	theme := "notty"
	if tty {
		if w, _, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil && w > 0 {
			width = w
		}
		theme = "light"
		if termenv.HasDarkBackground() {
			theme = "dark"
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("building renderer: %w", err)
	}
	rendered, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("rendering note: %w", err)
	}

	if !tty {
		fmt.Fprint(os.Stdout, rendered)
		return nil
	}
	return pager.Run(filepath.Base(path), rendered)
}
