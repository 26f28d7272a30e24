package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexander-akhmetov/sceneprobe/internal/config"
	"github.com/alexander-akhmetov/sceneprobe/internal/debug"
	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/metrics"
	"github.com/alexander-akhmetov/sceneprobe/internal/profiler"
	"github.com/alexander-akhmetov/sceneprobe/internal/progress"
	"github.com/alexander-akhmetov/sceneprobe/internal/report"
	"github.com/alexander-akhmetov/sceneprobe/internal/sim"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
	"github.com/alexander-akhmetov/sceneprobe/internal/tui"
)

// defaultFrameTime is the simulated frame time when ticks are not paced.
const defaultFrameTime = 16 * time.Millisecond

var (
	simFrames       int
	simTickInterval int
	simMetricsAddr  string
	simRunID        string
	simTUI          bool
	simQuiet        bool
	simWallClock    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the probe against the simulated host",
	Long: `Boot the simulated host with the probe attached, play the scripted scene
loads and record every observation.

The host boots the active scene, then ticks its loop --frames times. Loads are
single mode: loading a scene unloads every other one. Each completed load is
printed as "<scene>: <ms>ms" and written to a JSON Lines log in the logs
directory.

By default durations are measured on a simulated clock that advances one
frame time per tick, so results are reproducible. Use --wall-clock to measure
real elapsed time instead.

Examples:
  sceneprobe simulate                       # Run the configured script
  sceneprobe simulate --frames 120 --quiet  # Short run, log only
  sceneprobe simulate --tui                 # Live view
  sceneprobe simulate --metrics-addr :9100  # Expose /metrics while running`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simFrames, "frames", 0, "Number of ticks to run (overrides config)")
	simulateCmd.Flags().IntVar(&simTickInterval, "tick-interval", 0, "Milliseconds between ticks (overrides config)")
	simulateCmd.Flags().StringVar(&simMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	simulateCmd.Flags().StringVar(&simRunID, "run-id", "sim", "Run identifier used in the log file name")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the live terminal view")
	simulateCmd.Flags().BoolVarP(&simQuiet, "quiet", "q", false, "Do not print observations or the summary")
	simulateCmd.Flags().BoolVar(&simWallClock, "wall-clock", false, "Measure real elapsed time instead of simulated frame time")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyCLIFlags(simFrames, simTickInterval, simMetricsAddr)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = simulate(ctx, cfg, simulateOptions{
		RunID:     simRunID,
		TUI:       simTUI,
		Quiet:     simQuiet,
		WallClock: simWallClock,
	}, cmd.OutOrStdout())
	return err
}

type simulateOptions struct {
	RunID     string
	TUI       bool
	Quiet     bool
	WallClock bool
}

type simulateResult struct {
	Result  *sim.Result
	LogPath string
	Summary report.Summary
}

// consoleSink prints completed loads as "<scene>: <ms>ms".
func consoleSink(w io.Writer) event.Handler {
	return event.Only(func(e event.Event) {
		fmt.Fprintf(w, "%s: %dms\n", e.Scene, e.Duration.Milliseconds())
	}, event.KindLoadCompleted)
}

func frameTime(cfg *config.Config) time.Duration {
	if d := cfg.TickInterval(); d > 0 {
		return d
	}
	return defaultFrameTime
}

func hostOptions(cfg *config.Config, clock timing.Clock) sim.Options {
	loads := make([]sim.Load, 0, len(cfg.Host.Loads))
	for _, l := range cfg.Host.Loads {
		loads = append(loads, sim.Load{Scene: l.Scene, AtFrame: uint64(l.AtFrame), Frames: l.Frames})
	}
	return sim.Options{
		Scenes:       cfg.Host.Scenes,
		Active:       cfg.Host.Active,
		BootFrames:   cfg.Host.BootFrames,
		Loads:        loads,
		Clock:        clock,
		FrameTime:    frameTime(cfg),
		TickInterval: cfg.TickInterval(),
	}
}

func simulate(ctx context.Context, cfg *config.Config, opts simulateOptions, out io.Writer) (*simulateResult, error) {
	timing.Log("simulate: start")

	logger, err := progress.NewLogger(progress.Config{
		LogsDir: cfg.LogsDir,
		RunID:   opts.RunID,
		Host:    "sim",
		Scenes:  cfg.Host.Scenes,
		Stages:  cfg.Stages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}
	defer logger.Close()

	collector := metrics.New(cfg.Namespace)
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr, collector)
		if err != nil {
			return nil, err
		}
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := srv.Serve(srvCtx); err != nil {
				debug.Logf("metrics server: %v", err)
			}
		}()
		if !opts.TUI {
			fmt.Fprintf(out, "metrics: http://%s/metrics\n", srv.Addr())
		}
	}

	var clock timing.Clock = timing.System{}
	if !opts.WallClock {
		clock = timing.NewManual(time.Now())
	}

	var (
		ui   *tui.TUI
		prof *profiler.Profiler
	)
	handlers := []event.Handler{logger.Handle, collector.Handle}
	switch {
	case opts.TUI:
		handlers = append(handlers, func(e event.Event) { ui.Handle(e) })
	case !opts.Quiet:
		handlers = append(handlers, consoleSink(out))
	}

	hopts := hostOptions(cfg, clock)
	hopts.OnFrame = func(frame uint64) {
		if ui == nil || prof == nil || prof.Registry() == nil {
			return
		}
		ui.OnFrame(frame, clock.Now(), prof.Registry().Snapshot())
	}
	host, err := sim.New(hopts)
	if err != nil {
		return nil, err
	}

	prof, err = profiler.New(host, host.Scheduler(), profiler.Options{
		Stages: cfg.Stages,
		Clock:  clock,
		Emit:   event.Multi(handlers...),
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s • %d scenes • %d frames", logger.RunID(), len(cfg.Host.Scenes), cfg.Frames)
	if opts.TUI {
		ui = tui.New(title, host)
	}

	if err := host.Boot(ctx, prof); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	timing.Log("simulate: booted")

	run := func() (*sim.Result, error) { return host.Run(ctx, cfg.Frames) }
	var result *sim.Result
	if ui != nil {
		result, err = ui.Run(run)
	} else {
		result, err = run()
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	logger.Exit(string(result.ExitReason), result.Frames)
	if err := logger.Close(); err != nil {
		return nil, err
	}

	parsed, err := report.ReadFile(logger.Path())
	if err != nil {
		return nil, err
	}
	res := &simulateResult{
		Result:  result,
		LogPath: logger.Path(),
		Summary: report.Summarize(parsed.Records),
	}

	if !opts.Quiet {
		fmt.Fprintln(out)
		fmt.Fprint(out, report.Text(title, res.Summary))
		fmt.Fprintf(out, "exit: %s after %d frames\n", result.ExitReason, result.Frames)
		fmt.Fprintf(out, "log: %s\n", res.LogPath)
	}
	return res, nil
}
