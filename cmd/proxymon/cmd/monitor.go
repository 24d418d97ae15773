package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/plexsphere/proxymon/internal/agent"
	"github.com/plexsphere/proxymon/internal/api"
	"github.com/plexsphere/proxymon/internal/metrics"
)

// monitor bundles the components of one running proxymon instance.
type monitor struct {
	cfg       *agent.Config
	registry  *metrics.Registry
	scheduler *agent.Scheduler
}

// loadConfig parses cfgFile and applies the --log-level override.
func loadConfig() (*agent.Config, error) {
	cfg, err := agent.ParseConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, &agent.ConfigError{Err: err}
		}
	}
	return cfg, nil
}

// newMonitor wires the controller client, registry, reshaper, optional
// pusher and scheduler from cfg.
func newMonitor(cfg *agent.Config, logger *slog.Logger) (*monitor, error) {
	client, err := api.NewClient(cfg.APIConfig(), buildVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	registry := metrics.NewRegistry()
	reshaper := metrics.NewReshaper(registry, logger)

	// A nil interface, not a typed nil, when push is disabled.
	var pusher agent.MetricsPusher
	mcfg := cfg.MetricsConfig()
	if mcfg.PushEnabled() {
		pusher = metrics.NewPusher(mcfg, registry, buildVersion, logger)
	}

	return &monitor{
		cfg:       cfg,
		registry:  registry,
		scheduler: agent.NewScheduler(cfg.SchedulerConfig(), client, reshaper, pusher, logger),
	}, nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
