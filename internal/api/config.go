package api

import (
	"errors"
	"net/url"
	"time"
)

// Config holds the configuration for the proxy controller client.
// Config is passed as a constructor argument; this package does no file I/O.
type Config struct {
	// BaseURL is the controller API base URL (required).
	// Example: "http://127.0.0.1:9090"
	BaseURL string

	// Secret is the bearer credential. When empty no Authorization
	// header is sent.
	Secret string

	// ConnectTimeout is the maximum time to wait for a TCP connection.
	// Default: 10s
	ConnectTimeout time.Duration

	// RequestTimeout is the maximum time for a complete HTTP request/response cycle.
	// It must exceed the probe timeout because the controller holds the
	// delay request open until every member has been tested.
	// Default: 30s
	RequestTimeout time.Duration
}

// DefaultConnectTimeout is the default TCP connect timeout.
const DefaultConnectTimeout = 10 * time.Second

// DefaultRequestTimeout is the default HTTP request timeout.
const DefaultRequestTimeout = 30 * time.Second

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("api: config: BaseURL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("api: config: BaseURL must be an absolute URL")
	}
	if c.ConnectTimeout < 0 || c.RequestTimeout < 0 {
		return errors.New("api: config: timeouts must not be negative")
	}
	return nil
}
