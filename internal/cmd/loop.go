package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"

	"github.com/alexander-akhmetov/sceneprobe/internal/config"
	"github.com/alexander-akhmetov/sceneprobe/internal/profiler"
	"github.com/alexander-akhmetov/sceneprobe/internal/sim"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

var loopTree bool

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Show where the probe is inserted into the host loop",
	Long: `Boot the simulated host with the probe attached and print a unified diff
between the host's default loop and the loop after installation.

Examples:
  sceneprobe loop          # Diff default vs installed loop
  sceneprobe loop --tree   # Print the installed loop`,
	Args: cobra.NoArgs,
	RunE: runLoop,
}

func init() {
	loopCmd.Flags().BoolVar(&loopTree, "tree", false, "Print the installed loop instead of a diff")
}

func runLoop(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return printLoop(cmd.Context(), cmd.OutOrStdout(), cfg, loopTree)
}

// installedLoop boots a host and returns its loop before and after the
// probe is installed.
func installedLoop(ctx context.Context, cfg *config.Config) (before, after string, err error) {
	clock := timing.NewManual(time.Now())
	host, err := sim.New(hostOptions(cfg, clock))
	if err != nil {
		return "", "", err
	}
	prof, err := profiler.New(host, host.Scheduler(), profiler.Options{Stages: cfg.Stages, Clock: clock})
	if err != nil {
		return "", "", err
	}

	before = host.Scheduler().CurrentLoop().String()
	if err := host.Boot(ctx, prof); err != nil {
		return "", "", err
	}
	after = host.Scheduler().CurrentLoop().String()
	return before, after, nil
}

func printLoop(ctx context.Context, out io.Writer, cfg *config.Config, tree bool) error {
	before, after, err := installedLoop(ctx, cfg)
	if err != nil {
		return err
	}
	if tree {
		_, err = io.WriteString(out, after)
		return err
	}
	_, err = io.WriteString(out, udiff.Unified("default", "installed", before, after))
	return err
}
