package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hile/rtfm/internal/config"
	"github.com/hile/rtfm/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the rtfm configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/rtfm/config.yaml, or --config)
  3. Environment variables (RTFM_*)
  4. Command-line flags (--cache-dir)`,
		Example: `  rtfm config init
  rtfm config show --json
  rtfm config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file",
		Long: `Write the configuration file with all settings at their defaults.

With --force an existing file is backed up and rewritten with its current
values plus defaults for any settings it lacks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and rewrite an existing file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), userConfigPath())
			return err
		},
	}
}

func userConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetUserConfigPath()
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := cmd.OutOrStdout()
	styles := ui.GetStyles(noColor())
	path := userConfigPath()

	var backupPath string
	existing := config.NewConfig()
	if config.FileExists(path) {
		if !force {
			_, _ = fmt.Fprintln(out, styles.Warning.Render("Configuration already exists: "+path))
			_, _ = fmt.Fprintln(out, "Use --force to rewrite it with new defaults (current values are kept).")
			return nil
		}
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		existing = loaded
		if backupPath, err = config.BackupConfigFile(path); err != nil {
			return err
		}
	}

	if err := existing.WriteYAML(path); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, styles.Success.Render("Wrote configuration: "+path))
	if backupPath != "" {
		_, _ = fmt.Fprintf(out, "Backup: %s\n", backupPath)
	}
	return nil
}
