package main

import (
	"errors"
	"fmt"
	"os"

	"energystats/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write a configuration file with the default settings.

The file is created as .energystats.yaml in the current directory unless
--config names another path. Credentials are left empty; store them with
"energystats auth set" or the OCTOPUS_* and MYENERGI_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with API keys masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and credentials of both vendors",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".energystats.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file %s already exists", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	masked := *cfg
	masked.Octopus.APIKey = maskSecret(cfg.Octopus.APIKey)
	masked.Myenergi.APIKey = maskSecret(cfg.Myenergi.APIKey)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed []error
	for _, check := range []struct {
		name     string
		validate func() error
	}{
		{"octopus", cfg.ValidateOctopus},
		{"myenergi", cfg.ValidateMyenergi},
	} {
		if err := check.validate(); err != nil {
			fmt.Fprintf(out, "%-9s invalid: %v\n", check.name, err)
			failed = append(failed, fmt.Errorf("%s: %w", check.name, err))
			continue
		}
		fmt.Fprintf(out, "%-9s ok\n", check.name)
	}
	return errors.Join(failed...)
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}
