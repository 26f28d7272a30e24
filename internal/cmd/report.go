package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexander-akhmetov/sceneprobe/internal/config"
	"github.com/alexander-akhmetov/sceneprobe/internal/progress"
	"github.com/alexander-akhmetov/sceneprobe/internal/report"
)

var (
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report [log-file|run-id]",
	Short: "Summarize a measurement log",
	Long: `Summarize the scene loads recorded in a measurement log: per-scene count,
mean, standard deviation, min, p50, p95 and max.

Without an argument the most recent log is used. A run ID selects the most
recent log whose name contains it.

Formats: ` + strings.Join(report.Formats, ", ") + `

Examples:
  sceneprobe report                          # Latest run as a table
  sceneprobe report boot --format markdown   # Latest "boot" run
  sceneprobe report --format html --out loads.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", report.FormatText, "Output format")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write to this file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := resolveLog(cfg.LogsDir, arg)
	if err != nil {
		return err
	}

	if reportOut == "" {
		return writeReport(cmd.OutOrStdout(), path, reportFormat)
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, path, reportFormat); err != nil {
		return err
	}
	if err := os.WriteFile(reportOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportOut)
	return nil
}

// resolveLog maps an explicit file, a run ID or nothing to a log path.
func resolveLog(logsDir, arg string) (string, error) {
	if arg != "" {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			return arg, nil
		}
	}

	lf, err := progress.FindLatestLog(logsDir, arg)
	if err != nil {
		return "", fmt.Errorf("failed to find log: %w", err)
	}
	if lf == nil {
		if arg == "" {
			return "", fmt.Errorf("no logs found; run 'sceneprobe simulate' first")
		}
		return "", fmt.Errorf("no logs found for %q", arg)
	}
	return lf.Path, nil
}

func writeReport(w io.Writer, path, format string) error {
	run, err := report.ReadFile(path)
	if err != nil {
		return err
	}

	title := "Run " + run.RunID
	if run.ExitReason != "" {
		title += fmt.Sprintf(" (%s, %d frames)", run.ExitReason, run.Frames)
	} else {
		title += " (incomplete)"
	}
	return report.Render(w, format, title, report.Summarize(run.Records))
}
