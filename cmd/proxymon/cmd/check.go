package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plexsphere/proxymon/internal/metrics"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one health-check cycle and print the metrics",
	Long: "Trigger delay tests for every monitored group once, fetch the results and\n" +
		"print the proxy_delay_ms exposition to stdout. Nothing is pushed and no\n" +
		"scrape endpoint is started.",
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("proxymon check: %w", err)
	}
	// check never exports; keep the scheduler from pushing.
	cfg.Prometheus.Mode = metrics.ModePull

	logger := setupLogger(cfg.LogLevel)
	mon, err := newMonitor(cfg, logger)
	if err != nil {
		return fmt.Errorf("proxymon check: %w", err)
	}

	if err := mon.scheduler.RunOnce(cmd.Context()); err != nil {
		return fmt.Errorf("proxymon check: %w", err)
	}
	if err := metrics.WriteText(cmd.OutOrStdout(), mon.registry); err != nil {
		return fmt.Errorf("proxymon check: %w", err)
	}
	return nil
}
