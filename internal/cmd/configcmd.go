package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexander-akhmetov/sceneprobe/internal/config"
	"github.com/alexander-akhmetov/sceneprobe/internal/dirs"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sceneprobe configuration",
	Long:  `View and manage sceneprobe configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved configuration with source annotations",
	Long: `Show the fully resolved configuration with annotations indicating
where each value came from.

Configuration is loaded from multiple sources with the following precedence:
  1. Embedded defaults (built into binary)
  2. Global config (~/.config/sceneprobe/config.yaml)
  3. Environment variables (SCENEPROBE_*)
  4. Local config (.sceneprobe/config.yaml)
  5. CLI flags (highest precedence)`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return showConfig(cmd.OutOrStdout(), cfg)
}

func showConfig(out io.Writer, cfg *config.Config) error {
	fmt.Fprintln(out, "# Sceneprobe Configuration")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Sources (in order of precedence)")
	for _, src := range cfg.Sources() {
		fmt.Fprintf(out, "  - %s\n", src)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Directories")
	fmt.Fprintf(out, "  Global config: %s\n", cfg.ConfigDir())
	if cfg.LocalDir() != "" {
		fmt.Fprintf(out, "  Local config:  %s\n", cfg.LocalDir())
	} else {
		fmt.Fprintf(out, "  Local config:  (none detected)\n")
	}
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = dirs.LogsDir() + " (default)"
	}
	fmt.Fprintf(out, "  Logs:          %s\n", logsDir)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Probe Settings")
	fmt.Fprintf(out, "  stages:           %s\n", strings.Join(cfg.Stages, ", "))
	fmt.Fprintf(out, "  namespace:        %s\n", cfg.Namespace)
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(out, "  metrics_addr:     %s\n", cfg.MetricsAddr)
	} else {
		fmt.Fprintf(out, "  metrics_addr:     (disabled)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Simulation Settings")
	fmt.Fprintf(out, "  frames:           %d\n", cfg.Frames)
	fmt.Fprintf(out, "  tick_interval_ms: %d\n", cfg.TickIntervalMs)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Host")
	host, err := yaml.Marshal(cfg.Host)
	if err != nil {
		return fmt.Errorf("encode host config: %w", err)
	}
	for line := range strings.SplitSeq(strings.TrimRight(string(host), "\n"), "\n") {
		fmt.Fprintf(out, "  %s\n", line)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Problems")
		for line := range strings.SplitSeq(err.Error(), "\n") {
			fmt.Fprintf(out, "  - %s\n", line)
		}
	}
	return nil
}
