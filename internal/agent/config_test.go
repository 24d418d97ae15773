package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plexsphere/proxymon/internal/metrics"
)

func validConfig() Config {
	cfg := Config{
		APIURL:             "http://127.0.0.1:9090",
		GroupsToMonitor:    []string{"Auto"},
		IntervalSeconds:    60,
		TestURL:            "http://www.gstatic.com/generate_204",
		TestTimeoutSeconds: 5,
		Prometheus:         PrometheusConfig{Mode: metrics.ModePull},
		Reporter:           "test-host",
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func stubHostname(t *testing.T, name string, err error) {
	t.Helper()
	orig := hostname
	hostname = func() (string, error) { return name, err }
	t.Cleanup(func() { hostname = orig })
}

func TestConfig_ApplyDefaults(t *testing.T) {
	stubHostname(t, "edge-7", nil)

	var cfg Config
	cfg.ApplyDefaults()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Reporter != "edge-7" {
		t.Errorf("Reporter = %q, want edge-7", cfg.Reporter)
	}
	if cfg.Prometheus.ListenAddress != metrics.DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Prometheus.ListenAddress, metrics.DefaultListenAddress)
	}
}

func TestConfig_ApplyDefaults_HostnameFailure(t *testing.T) {
	stubHostname(t, "", errors.New("no uts namespace"))

	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Reporter != DefaultReporter {
		t.Errorf("Reporter = %q, want %q", cfg.Reporter, DefaultReporter)
	}
}

func TestConfig_ApplyDefaults_KeepsReporter(t *testing.T) {
	stubHostname(t, "edge-7", nil)

	cfg := Config{Reporter: "custom"}
	cfg.ApplyDefaults()
	if cfg.Reporter != "custom" {
		t.Errorf("Reporter = %q, want custom", cfg.Reporter)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api_url", func(c *Config) { c.APIURL = "" }},
		{"relative api_url", func(c *Config) { c.APIURL = "controller:9090" }},
		{"no groups", func(c *Config) { c.GroupsToMonitor = nil }},
		{"blank group", func(c *Config) { c.GroupsToMonitor = []string{"Auto", " "} }},
		{"zero interval", func(c *Config) { c.IntervalSeconds = 0 }},
		{"zero timeout", func(c *Config) { c.TestTimeoutSeconds = 0 }},
		{"missing test_url", func(c *Config) { c.TestURL = "" }},
		{"relative test_url", func(c *Config) { c.TestURL = "generate_204" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"relative push_url", func(c *Config) {
			c.Prometheus.Mode = metrics.ModePush
			c.Prometheus.PushURL = "vm/api/v1/write"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConfig_Validate_UnknownModeAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.Prometheus.Mode = "influx"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate_PushWithoutURLAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.Prometheus.Mode = metrics.ModePush
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_APIConfig_Timeout(t *testing.T) {
	cfg := validConfig()
	if got := cfg.APIConfig().RequestTimeout; got != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", got)
	}

	cfg.TestTimeoutSeconds = 45
	if got := cfg.APIConfig().RequestTimeout; got != 55*time.Second {
		t.Errorf("RequestTimeout = %v, want 55s", got)
	}

	cfg.APITimeoutSeconds = 12
	if got := cfg.APIConfig().RequestTimeout; got != 12*time.Second {
		t.Errorf("RequestTimeout = %v, want 12s", got)
	}
}

func TestConfig_SchedulerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Prometheus.Mode = metrics.ModePush
	sc := cfg.SchedulerConfig()

	if sc.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", sc.Interval)
	}
	if sc.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v, want 5s", sc.ProbeTimeout)
	}
	if !sc.PushMode {
		t.Error("PushMode = false, want true")
	}
	sc.ApplyDefaults()
	if sc.SettleDelay != 2*time.Second {
		t.Errorf("SettleDelay = %v, want 2s", sc.SettleDelay)
	}
}

func TestParseConfig_ValidYAML(t *testing.T) {
	stubHostname(t, "yaml-host", nil)
	path := writeTemp(t, "config.yaml", `
api_url: "http://127.0.0.1:9090"
api_secret: "s3cret"
groups_to_monitor: ["🚀 Select", "Auto"]
interval_seconds: 300
test_url: "http://www.gstatic.com/generate_204"
test_timeout_seconds: 5
log_level: debug
prometheus:
  mode: push
  push_url: "http://vm:8428/api/v1/write"
`)
	cfg, err := ParseConfig(path)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.APISecret != "s3cret" {
		t.Errorf("APISecret = %q", cfg.APISecret)
	}
	if len(cfg.GroupsToMonitor) != 2 || cfg.GroupsToMonitor[0] != "🚀 Select" {
		t.Errorf("GroupsToMonitor = %v", cfg.GroupsToMonitor)
	}
	if cfg.IntervalSeconds != 300 || cfg.TestTimeoutSeconds != 5 {
		t.Errorf("interval/timeout = %d/%d", cfg.IntervalSeconds, cfg.TestTimeoutSeconds)
	}
	if cfg.Prometheus.Mode != "push" || cfg.Prometheus.PushURL != "http://vm:8428/api/v1/write" {
		t.Errorf("Prometheus = %+v", cfg.Prometheus)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Reporter != "yaml-host" {
		t.Errorf("Reporter = %q, want hostname default", cfg.Reporter)
	}
}

func TestParseConfig_ValidTOML(t *testing.T) {
	path := writeTemp(t, "config.toml", `
api_url = "http://127.0.0.1:9090"
api_secret = ""
groups_to_monitor = ["Auto"]
interval_seconds = 60
test_url = "http://www.gstatic.com/generate_204"
test_timeout_seconds = 3
reporter = "home-router"

[prometheus]
mode = "pull"
listen_address = "0.0.0.0:9091"
`)
	cfg, err := ParseConfig(path)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Prometheus.Mode != "pull" || cfg.Prometheus.ListenAddress != "0.0.0.0:9091" {
		t.Errorf("Prometheus = %+v", cfg.Prometheus)
	}
	if cfg.Reporter != "home-router" {
		t.Errorf("Reporter = %q", cfg.Reporter)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestParseConfig_MissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "nope.toml"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestParseConfig_InvalidSyntax(t *testing.T) {
	for name, content := range map[string]string{
		"config.yaml": "api_url: [unterminated",
		"config.toml": "api_url = ",
	} {
		_, err := ParseConfig(writeTemp(t, name, content))
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected *ConfigError, got %v", name, err)
		}
	}
}

func TestParseConfig_MissingRequiredField(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
groups_to_monitor: ["Auto"]
interval_seconds: 60
test_url: "http://t.example"
test_timeout_seconds: 5
`)
	_, err := ParseConfig(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Path != path {
		t.Errorf("Path = %q, want %q", cfgErr.Path, path)
	}
}
