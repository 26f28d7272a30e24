// Package cmd implements the CLI commands for sceneprobe.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexander-akhmetov/sceneprobe/internal/debug"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sceneprobe",
	Short: "Scene load telemetry probe",
	Long: `Sceneprobe hooks into a host's per-tick update loop, polls the load state of
every scene known at startup and reports how long each scene took to go from
loading to loaded.

The bundled simulated host lets you run the probe end to end, persist the
observations and summarize them afterwards.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if debugFlag {
			debug.Enable(nil)
		}
	},
}

var debugFlag bool

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write diagnostics to stderr (same as SCENEPROBE_DEBUG=1)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(configCmd)
}
