package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/plexsphere/proxymon/internal/api"
	"github.com/plexsphere/proxymon/internal/metrics"
)

// SchedulerConfig holds the configuration for the health-check cycle.
type SchedulerConfig struct {
	// Groups are triggered in order, one at a time.
	Groups []string

	// ProbeURL is the target every member is probed against.
	ProbeURL string

	// ProbeTimeout bounds a single probe on the controller side.
	ProbeTimeout time.Duration

	// Interval is the cycle period.
	Interval time.Duration

	// SettleDelay is how long to wait between triggering and fetching.
	// Default: SettleDelayFor(ProbeTimeout)
	SettleDelay time.Duration

	// PushMode reports whether metrics should be pushed after each cycle.
	PushMode bool
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *SchedulerConfig) ApplyDefaults() {
	if c.SettleDelay == 0 {
		c.SettleDelay = SettleDelayFor(c.ProbeTimeout)
	}
}

// Validate checks that required fields are set.
func (c *SchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return errors.New("agent: scheduler config: Interval must be > 0")
	}
	if c.ProbeURL == "" {
		return errors.New("agent: scheduler config: ProbeURL is required")
	}
	return nil
}

// SettleDelayFor returns half the probe timeout in whole seconds, but at
// least one second. The controller gives no completion signal, so results
// are read after this fixed wait.
func SettleDelayFor(probeTimeout time.Duration) time.Duration {
	secs := int64(probeTimeout / time.Second)
	return time.Duration(max(secs/2, 1)) * time.Second
}

// ProxyAPI is the subset of the controller client used by the scheduler.
type ProxyAPI interface {
	TriggerGroupDelay(ctx context.Context, group, probeURL string, timeout time.Duration) error
	Proxies(ctx context.Context) (*api.Topology, error)
}

// TopologyUpdater writes per-member delays from a topology snapshot.
type TopologyUpdater interface {
	Update(topo *api.Topology, groups []string, probeURL string) metrics.UpdateStats
}

// MetricsPusher transmits the current metrics after a cycle.
type MetricsPusher interface {
	Push(ctx context.Context) error
}

// Scheduler runs the trigger, settle, fetch, update, push cycle at a fixed
// interval. Cycles never overlap. Failures are logged and the next cycle is
// the only retry.
type Scheduler struct {
	cfg     SchedulerConfig
	client  ProxyAPI
	updater TopologyUpdater
	pusher  MetricsPusher
	logger  *slog.Logger
}

// NewScheduler creates a new Scheduler. Config defaults are applied
// automatically. pusher may be nil, in which case nothing is pushed even in
// push mode.
func NewScheduler(cfg SchedulerConfig, client ProxyAPI, updater TopologyUpdater, pusher MetricsPusher, logger *slog.Logger) *Scheduler {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		client:  client,
		updater: updater,
		pusher:  pusher,
		logger:  logger.With("component", "scheduler"),
	}
}

// Run runs one cycle immediately and then one per Interval until ctx is
// cancelled. It returns ctx.Err() on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval,
		"groups", len(s.cfg.Groups),
		"settle_delay", s.cfg.SettleDelay,
	)

	s.safeCycle(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.safeCycle(ctx)
		}
	}
}

// RunOnce runs a single cycle and returns the fetch error, if any.
// Trigger and push failures are only logged.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	return s.cycle(ctx)
}

// safeCycle runs a cycle with panic recovery.
func (s *Scheduler) safeCycle(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("cycle panicked", "panic", fmt.Sprint(v), "stack", string(debug.Stack()))
		}
	}()
	if err := s.cycle(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("cycle aborted", "error", err)
	}
}

func (s *Scheduler) cycle(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("starting health check cycle")

	for _, group := range s.cfg.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.client.TriggerGroupDelay(ctx, group, s.cfg.ProbeURL, s.cfg.ProbeTimeout); err != nil {
			s.logTriggerError(group, err)
			continue
		}
		s.logger.Info("triggered delay test", "group", group)
	}

	s.logger.Debug("waiting for tests to complete", "settle_delay", s.cfg.SettleDelay)
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return err
	}

	topo, err := s.client.Proxies(ctx)
	if err != nil {
		return fmt.Errorf("fetch proxies: %w", err)
	}

	stats := s.updater.Update(topo, s.cfg.Groups, s.cfg.ProbeURL)
	s.logger.Debug("metrics updated",
		"groups", stats.Groups,
		"samples", stats.Samples,
		"skipped", stats.Skipped,
	)

	if s.cfg.PushMode {
		s.push(ctx)
	}

	s.logger.Info("health check cycle finished", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Scheduler) push(ctx context.Context) {
	if s.pusher == nil {
		s.logger.Warn("push mode enabled but no push_url configured, metrics not pushed")
		return
	}
	if err := s.pusher.Push(ctx); err != nil {
		s.logger.Error("failed to push metrics", "error", err)
	}
}

func (s *Scheduler) logTriggerError(group string, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		s.logger.Error("failed to trigger delay test",
			"group", group,
			"status", apiErr.StatusCode,
			"body", apiErr.Body,
		)
		return
	}
	s.logger.Error("failed to trigger delay test", "group", group, "error", err)
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
