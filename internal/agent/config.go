// Package agent wires configuration and runs the health-check cycle.
package agent

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/plexsphere/proxymon/internal/api"
	"github.com/plexsphere/proxymon/internal/metrics"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultReporter is used when the host name cannot be determined.
	DefaultReporter = "unknown"

	// apiTimeoutMargin is added to the probe timeout to derive the
	// controller request timeout when none is configured.
	apiTimeoutMargin = 10 * time.Second
)

// hostname is replaced in tests.
var hostname = os.Hostname

// PrometheusConfig selects how metrics are exported.
type PrometheusConfig struct {
	// Mode is "pull" or "push".
	Mode string `yaml:"mode" toml:"mode"`

	// PushURL is the remote-write endpoint used in push mode.
	PushURL string `yaml:"push_url" toml:"push_url"`

	// ListenAddress is the scrape endpoint address used in pull mode.
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`
}

// Config is the top-level proxymon configuration, populated from a YAML or
// TOML file via ParseConfig. It is read-only once loaded.
type Config struct {
	// APIURL is the controller base URL, e.g. http://127.0.0.1:9090.
	APIURL string `yaml:"api_url" toml:"api_url"`

	// APISecret is the controller bearer secret. May be empty.
	APISecret string `yaml:"api_secret" toml:"api_secret"`

	// GroupsToMonitor lists the proxy groups probed each cycle, in order.
	GroupsToMonitor []string `yaml:"groups_to_monitor" toml:"groups_to_monitor"`

	// IntervalSeconds is the cycle period. Must be > 0.
	IntervalSeconds uint64 `yaml:"interval_seconds" toml:"interval_seconds"`

	// TestURL is the probe target URL.
	TestURL string `yaml:"test_url" toml:"test_url"`

	// TestTimeoutSeconds bounds a single probe. Must be >= 1.
	TestTimeoutSeconds uint64 `yaml:"test_timeout_seconds" toml:"test_timeout_seconds"`

	// APITimeoutSeconds bounds a single controller request.
	// Default: max(30, test_timeout_seconds+10)
	APITimeoutSeconds uint64 `yaml:"api_timeout_seconds" toml:"api_timeout_seconds"`

	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	Prometheus PrometheusConfig `yaml:"prometheus" toml:"prometheus"`

	// Reporter identifies this instance on pushed series.
	// Default: the host name.
	Reporter string `yaml:"reporter" toml:"reporter"`
}

// ConfigError reports a configuration that could not be read, parsed or
// validated. It is fatal at startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("agent: config: %v", e.Err)
	}
	return fmt.Sprintf("agent: config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ApplyDefaults sets default values for zero-valued fields. The reporter
// default is resolved from the host name here, once.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Reporter == "" {
		name, err := hostname()
		if err != nil || name == "" {
			name = DefaultReporter
		}
		c.Reporter = name
	}
	if c.Prometheus.ListenAddress == "" {
		c.Prometheus.ListenAddress = metrics.DefaultListenAddress
	}
}

// Validate checks that required fields are set and values are acceptable.
// An unrecognized prometheus.mode is accepted; export is then disabled.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if len(c.GroupsToMonitor) == 0 {
		return errors.New("groups_to_monitor must list at least one group")
	}
	for i, g := range c.GroupsToMonitor {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("groups_to_monitor[%d] is empty", i)
		}
	}
	if c.IntervalSeconds == 0 {
		return errors.New("interval_seconds must be > 0")
	}
	if c.TestTimeoutSeconds == 0 {
		return errors.New("test_timeout_seconds must be >= 1")
	}
	if c.TestURL == "" {
		return errors.New("test_url is required")
	}
	if u, err := url.Parse(c.TestURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("test_url %q must be an absolute URL", c.TestURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	apiCfg := c.APIConfig()
	if err := apiCfg.Validate(); err != nil {
		return err
	}
	metricsCfg := c.MetricsConfig()
	if err := metricsCfg.Validate(); err != nil {
		return err
	}
	return nil
}

// APIConfig returns the controller client configuration.
func (c *Config) APIConfig() api.Config {
	timeout := time.Duration(c.APITimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = max(api.DefaultRequestTimeout, c.ProbeTimeout()+apiTimeoutMargin)
	}
	return api.Config{
		BaseURL:        c.APIURL,
		Secret:         c.APISecret,
		RequestTimeout: timeout,
	}
}

// MetricsConfig returns the metric export configuration.
func (c *Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		Mode:          c.Prometheus.Mode,
		PushURL:       c.Prometheus.PushURL,
		ListenAddress: c.Prometheus.ListenAddress,
		Reporter:      c.Reporter,
	}
}

// SchedulerConfig returns the health-check cycle configuration.
func (c *Config) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Groups:       c.GroupsToMonitor,
		ProbeURL:     c.TestURL,
		ProbeTimeout: c.ProbeTimeout(),
		Interval:     time.Duration(c.IntervalSeconds) * time.Second,
		PushMode:     c.Prometheus.Mode == metrics.ModePush,
	}
}

// ProbeTimeout returns test_timeout_seconds as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.TestTimeoutSeconds) * time.Second
}

// ParseConfig reads a configuration file and returns a Config. Files ending
// in .toml are parsed as TOML, everything else as YAML. It applies defaults
// and validates the configuration. All failures are *ConfigError.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &cfg, nil
}
