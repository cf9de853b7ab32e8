package main

import (
	"fmt"
	"os"
	"runtime"

	"energystats/pkg/auth"
	"energystats/pkg/config"
	"energystats/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	timezone   string
	octopusDir string
	zappiDir   string
)

// newCredentialManager is replaced in tests
var newCredentialManager = auth.NewDefaultManager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "energystats",
	Short: "Export Octopus Energy and Zappi consumption to date-partitioned files",
	Long: `energystats downloads electricity consumption from the Octopus Energy API
and per-minute Zappi EV charger usage from the myenergi API, and stores them
as JSON files partitioned by local day (YYYY/MM/DD/HH-MM).

Exports are incremental: each run resumes after the latest stored file.

Configuration is read from (highest priority first):
  - Command line flags
  - Environment variables and .env files
  - Configuration file (.energystats.yaml)
  - Default values`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .energystats.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "IANA time zone used for partitioning (default Europe/London)")
	rootCmd.PersistentFlags().StringVar(&octopusDir, "octopus-dir", "", "base directory of Octopus exports")
	rootCmd.PersistentFlags().StringVar(&zappiDir, "zappi-dir", "", "base directory of Zappi exports")

	rootCmd.SetVersionTemplate(`energystats {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration, fills missing credentials from the
// credential stores and initializes the global logger
func loadConfig() (*config.Config, logger.Logger, error) {
	flags := map[string]interface{}{
		"log-level":   logLevel,
		"timezone":    timezone,
		"octopus-dir": octopusDir,
		"zappi-dir":   zappiDir,
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	newCredentialManager().FillConfig(cfg)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}
