package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vkoski/daybook/internal/clierr"
	"github.com/vkoski/daybook/internal/config"
	"github.com/vkoski/daybook/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Writes a config file with the default locale and markers. The Todoist
token is read from the TODOIST_API_TOKEN environment variable unless set
in the config afterwards.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("vault", "", "path to the markdown vault (required)")
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	vaultDir, _ := cmd.Flags().GetString("vault")
	if vaultDir == "" {
		return clierr.New(clierr.InvalidInput, "vault path required (--vault DIR)")
	}
	absVault, err := filepath.Abs(vaultDir)
	if err != nil {
		return fmt.Errorf("resolving vault path: %w", err)
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return clierr.Newf(clierr.ConfigExists, "config already exists at %s (use --force to overwrite)", path).
			WithDetails(map[string]any{"path": path})
	}

	cfg, err := config.Init(path, absVault)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status": "initialized",
			"config": cfg.Path(),
			"vault":  cfg.Vault,
		})
	}

	output.Messagef(os.Stdout, "Initialized daybook config in %s", cfg.Path())
	output.Messagef(os.Stdout, "  Vault:    %s", cfg.Vault)
	output.Messagef(os.Stdout, "  Timezone: %s", cfg.Timezone)
	output.Messagef(os.Stdout, "  Hint:     export %s=<token>, then run: daybook sync --dry-run", config.EnvToken)
	return nil
}
