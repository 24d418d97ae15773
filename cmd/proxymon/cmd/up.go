package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plexsphere/proxymon/internal/metrics"
)

// drainTimeout is the maximum time for graceful shutdown.
const drainTimeout = 30 * time.Second

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the proxymon daemon",
	Long: "Start the proxymon daemon. Runs a health-check cycle every interval_seconds\n" +
		"and exports the results according to prometheus.mode.",
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	// 1. Parse config.
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("proxymon up: %w", err)
	}

	// 2. Set up structured logger.
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting proxymon",
		"version", buildVersion,
		"api_url", cfg.APIURL,
		"groups", cfg.GroupsToMonitor,
		"interval_seconds", cfg.IntervalSeconds,
		"mode", cfg.Prometheus.Mode,
	)

	// 3. Wire components.
	mon, err := newMonitor(cfg, logger)
	if err != nil {
		return fmt.Errorf("proxymon up: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var wg sync.WaitGroup

	// 4. Start the export surface.
	mcfg := cfg.MetricsConfig()
	switch {
	case mcfg.Mode == metrics.ModePull:
		srv := metrics.NewServer(mcfg, mon.registry, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	case mcfg.Mode == metrics.ModePush && !mcfg.PushEnabled():
		logger.Warn("push mode enabled but no push_url configured, metrics will not be exported")
	case !mcfg.KnownMode():
		logger.Warn("unknown prometheus mode, metrics will not be exported", "mode", mcfg.Mode)
	}

	// 5. Start the scheduler.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", "error", err)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down", "reason", ctx.Err())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		logger.Warn("drain timeout exceeded, forcing exit")
	}

	logger.Info("proxymon stopped")
	return nil
}
