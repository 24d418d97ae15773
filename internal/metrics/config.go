// Package metrics holds the exported proxy delay series and publishes them
// through a pull scrape endpoint or Prometheus remote-write.
package metrics

import (
	"errors"
	"net/url"
	"time"
)

// Export modes.
const (
	ModePull = "pull"
	ModePush = "push"
)

// DefaultListenAddress is the default scrape endpoint address in pull mode.
const DefaultListenAddress = "0.0.0.0:9110"

// DefaultJob is the job label attached to pushed series.
const DefaultJob = "proxy_health_monitor"

// DefaultPushTimeout is the default timeout for a single remote-write request.
const DefaultPushTimeout = 10 * time.Second

// DefaultShutdownTimeout is the default graceful shutdown timeout of the scrape server.
const DefaultShutdownTimeout = 5 * time.Second

// Config holds the configuration for metric export.
type Config struct {
	// Mode is "pull" or "push". Any other value disables export
	// while metrics are still computed.
	Mode string

	// PushURL is the remote-write endpoint used in push mode.
	// When empty in push mode, nothing is pushed.
	PushURL string

	// ListenAddress is the scrape endpoint address used in pull mode.
	// Default: 0.0.0.0:9110
	ListenAddress string

	// Reporter identifies this exporter instance on pushed series.
	Reporter string

	// Job is the job label on pushed series.
	// Default: proxy_health_monitor
	Job string

	// PushTimeout bounds a single remote-write request.
	// Default: 10s
	PushTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown of the scrape server.
	// Default: 5s
	ShutdownTimeout time.Duration
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.Job == "" {
		c.Job = DefaultJob
	}
	if c.PushTimeout == 0 {
		c.PushTimeout = DefaultPushTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks that configuration values are acceptable.
// An unrecognized Mode is not an error; see KnownMode.
func (c *Config) Validate() error {
	if c.Mode == ModePush && c.PushURL != "" {
		u, err := url.Parse(c.PushURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("metrics: config: push_url must be an absolute URL")
		}
	}
	if c.Mode == ModePull && c.ListenAddress == "" {
		return errors.New("metrics: config: listen_address is required in pull mode")
	}
	if c.PushTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("metrics: config: timeouts must not be negative")
	}
	return nil
}

// KnownMode reports whether Mode selects an export surface.
func (c *Config) KnownMode() bool {
	return c.Mode == ModePull || c.Mode == ModePush
}

// PushEnabled reports whether a push should be attempted after each cycle.
func (c *Config) PushEnabled() bool {
	return c.Mode == ModePush && c.PushURL != ""
}
