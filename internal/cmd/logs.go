package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/alexander-akhmetov/sceneprobe/internal/config"
	"github.com/alexander-akhmetov/sceneprobe/internal/dirs"
	"github.com/alexander-akhmetov/sceneprobe/internal/progress"
)

var (
	logsFollow bool
	logsList   bool
	logsColor  bool
	logsRecent int
)

var logsCmd = &cobra.Command{
	Use:   "logs [run-id]",
	Short: "Show measurement logs",
	Long: `Show measurement logs from the logs directory.

Options:
  --list, -l       List recent log files
  --follow, -f     Tail the most recent log file
  --recent N       Show last N log files (default: 10)
  --color          Colorize JSON output

Examples:
  sceneprobe logs            # List recent logs
  sceneprobe logs boot       # Show the latest "boot" run
  sceneprobe logs -f         # Follow the latest run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output in real-time")
	logsCmd.Flags().BoolVarP(&logsList, "list", "l", false, "List recent log files")
	logsCmd.Flags().BoolVar(&logsColor, "color", false, "Colorize JSON output")
	logsCmd.Flags().IntVar(&logsRecent, "recent", 10, "Number of recent logs to show")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	out := cmd.OutOrStdout()

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	}

	if logsFollow {
		return followLogs(out, cfg.LogsDir, runID)
	}
	if logsList || runID == "" {
		return listLogs(out, cfg.LogsDir, runID, logsRecent)
	}
	return showLog(out, cfg.LogsDir, runID, logsColor)
}

// listLogs lists recent log files.
func listLogs(out io.Writer, logsDir, filter string, recent int) error {
	logs, err := progress.FindLogs(logsDir, filter)
	if err != nil {
		return fmt.Errorf("failed to find logs: %w", err)
	}

	if len(logs) == 0 {
		fmt.Fprintln(out, "No log files found.")
		if logsDir == "" {
			logsDir = dirs.LogsDir()
		}
		fmt.Fprintf(out, "Log directory: %s\n", logsDir)
		return nil
	}

	fmt.Fprintf(out, "Recent log files (showing %d):\n", min(recent, len(logs)))
	fmt.Fprintln(out, strings.Repeat("-", 60))

	for i, lf := range logs {
		if i >= recent {
			break
		}
		status := ""
		if !lf.Complete {
			status = " [INCOMPLETE]"
		}
		fmt.Fprintf(out, "  %s  %-30s%s\n",
			lf.Timestamp.Format("2006-01-02 15:04:05"),
			lf.RunID,
			status,
		)
		fmt.Fprintf(out, "    %s\n", lf.Path)
	}

	return nil
}

// showLog prints the most recent log file for a run ID.
func showLog(out io.Writer, logsDir, runID string, color bool) error {
	lf, err := progress.FindLatestLog(logsDir, runID)
	if err != nil {
		return fmt.Errorf("failed to find log: %w", err)
	}
	if lf == nil {
		fmt.Fprintf(out, "No logs found for run: %s\n", runID)
		fmt.Fprintln(out, "Tip: Use 'sceneprobe logs -l' to list all logs")
		return nil
	}

	fmt.Fprintf(out, "Log for %s (%s):\n", lf.RunID, lf.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, strings.Repeat("-", 60))

	f, err := os.Open(lf.Path)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := pretty.Ugly(sc.Bytes())
		if color {
			line = pretty.Color(line, nil)
		}
		fmt.Fprintln(out, string(line))
	}
	return sc.Err()
}

// followLogs tails the most recent log file.
func followLogs(out io.Writer, logsDir, runID string) error {
	lf, err := progress.FindLatestLog(logsDir, runID)
	if err != nil {
		return fmt.Errorf("failed to find log: %w", err)
	}
	if lf == nil {
		fmt.Fprintln(out, "No logs found to follow.")
		return nil
	}
	fmt.Fprintf(out, "Following %s\n", lf.RunID)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	cmd := exec.Command("tail", "-f", lf.Path)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start tail: %w", err)
	}
	return cmd.Wait()
}
