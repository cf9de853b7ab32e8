package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"energystats/pkg/checkpoint"
	"energystats/pkg/storage"

	"github.com/spf13/cobra"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint <octopus|zappi>",
	Short: "Show where the next incremental export resumes",
	Long: `Show the timestamp of the latest exported record for a vendor.

Day directories are scanned backwards from today for at most one year.
"none" means the next export will export the full history.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"octopus", "zappi"},
	RunE:      runCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	var dir string
	switch args[0] {
	case "octopus":
		dir = cfg.Storage.OctopusDirectory
	case "zappi":
		dir = cfg.Storage.ZappiDirectory
	default:
		return fmt.Errorf("unknown vendor %q (expected octopus or zappi)", args[0])
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "none")
		return nil
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}

	latest, ok, err := checkpoint.NewResolver(store, log).Resolve(time.Now().UTC(), loc)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "none")
		return nil
	}
	fmt.Fprintln(out, latest.Format(time.RFC3339))
	return nil
}
