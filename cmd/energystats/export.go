package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"energystats/pkg/config"
	"energystats/pkg/export"
	"energystats/pkg/logger"
	"energystats/pkg/myenergi"
	"energystats/pkg/octopus"
	"energystats/pkg/ratelimit"
	"energystats/pkg/retry"
	"energystats/pkg/storage"

	"github.com/spf13/cobra"
)

var fullExport bool

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export consumption data",
	Long: `Export consumption data from a vendor API into the configured directory.

Without --full the export resumes one minute after the latest stored
record. If nothing has been stored within the last year, the whole history
is exported.`,
}

var exportOctopusCmd = &cobra.Command{
	Use:   "octopus",
	Short: "Export half-hourly Octopus Energy consumption",
	Example: `  # Incremental export
  energystats export octopus

  # Re-export everything
  energystats export octopus --full`,
	Args: cobra.NoArgs,
	RunE: runExportOctopus,
}

var exportZappiCmd = &cobra.Command{
	Use:   "zappi",
	Short: "Export per-minute Zappi usage",
	Args:  cobra.NoArgs,
	RunE:  runExportZappi,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportOctopusCmd)
	exportCmd.AddCommand(exportZappiCmd)
	exportCmd.PersistentFlags().BoolVar(&fullExport, "full", false, "ignore stored data and export the full history")
}

func runExportOctopus(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateOctopus(); err != nil {
		return fmt.Errorf("octopus configuration: %w", err)
	}

	client := octopus.NewClient(octopus.Options{
		APIKey:  cfg.Octopus.APIKey,
		Timeout: cfg.HTTP.Timeout,
		Limiter: ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
		Retry:   retry.FromConfig(cfg.Retry, log),
		Logger:  log,
	})
	source := &export.OctopusSource{
		Client: client,
		Query: octopus.ConsumptionQuery{
			MPAN:          cfg.Octopus.MPAN,
			SerialNumber:  cfg.Octopus.SerialNumber,
			AccountNumber: cfg.Octopus.AccountNumber,
		},
	}

	return runExport(cmd, cfg, log, "octopus", cfg.Storage.OctopusDirectory, 0, source, export.EncodeOctopus)
}

func runExportZappi(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateMyenergi(); err != nil {
		return fmt.Errorf("myenergi configuration: %w", err)
	}

	client := myenergi.NewClient(myenergi.Options{
		HubSerialNumber: cfg.Myenergi.HubSerialNumber,
		APIKey:          cfg.Myenergi.APIKey,
		DirectorURL:     cfg.Myenergi.DirectorURL,
		Timeout:         cfg.HTTP.Timeout,
		ConcurrentDays:  cfg.Export.ConcurrentDays,
		Limiter:         ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
		Retry:           retry.FromConfig(cfg.Retry, log),
		Logger:          log,
	})

	source := &export.ZappiSource{Client: client}
	return runExport(cmd, cfg, log, "zappi", cfg.Storage.ZappiDirectory, export.DefaultZappiLookback, source, export.EncodeZappi)
}

func runExport[R export.Record](cmd *cobra.Command, cfg *config.Config, log logger.Logger, vendor, dir string, history time.Duration, source export.Source[R], encode export.Encoder[R]) error {
	store, err := openStore(dir)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	exporter, err := export.New(export.Options[R]{
		Vendor:   vendor,
		Source:   source,
		Store:    store,
		Location: loc,
		Encode:   encode,
		Logger:   log,
		History:  history,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := exporter.Export(ctx, fullExport)
	printSummary(cmd, vendor, summary)
	if err != nil {
		return fmt.Errorf("%s export failed: %w", vendor, err)
	}
	return nil
}

// openStore opens the file store at dir, creating the directory if needed
func openStore(dir string) (*storage.FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return storage.NewFileStore(dir)
}

func printSummary(cmd *cobra.Command, vendor string, summary export.Summary) {
	out := cmd.OutOrStdout()
	if summary.Start.IsZero() {
		fmt.Fprintf(out, "%s: full export\n", vendor)
	} else {
		fmt.Fprintf(out, "%s: exported from %s\n", vendor, summary.Start.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(out, "  records:    %d\n", summary.Records)
	fmt.Fprintf(out, "  partitions: %d\n", len(summary.Partitions))
	for _, p := range summary.Partitions {
		fmt.Fprintf(out, "    %s\n", p)
	}
	if len(summary.Replaced) > 0 {
		fmt.Fprintf(out, "  replaced:   %d\n", len(summary.Replaced))
		for _, p := range summary.Replaced {
			fmt.Fprintf(out, "    %s\n", p)
		}
	}
}

// contextOrBackground guards commands executed without a context
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
