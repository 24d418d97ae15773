// Package api implements a client for the proxy controller's external HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

const (
	// maxTopologySize caps the /proxies response body (32 MiB).
	// Large subscriptions produce several MiB of JSON.
	maxTopologySize = 32 * 1024 * 1024

	// userAgentPrefix is the User-Agent header prefix.
	userAgentPrefix = "proxymon/"
)

// Client talks to a single proxy controller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	version    string
	logger     *slog.Logger
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg Config, version string, logger *slog.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		// Controller traffic never goes through an environment proxy.
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConnsPerHost: 2,
	}

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secret:     cfg.Secret,
		version:    version,
		logger:     logger.With("component", "api"),
	}, nil
}

// get issues a GET request and decodes a 2xx JSON body into result when
// result is non-nil. Non-2xx responses yield *APIError; undecodable bodies
// yield *DecodeError.
func (c *Client) get(ctx context.Context, op, group, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &APIError{Op: op, Group: group, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
	req.Header.Set("User-Agent", userAgentPrefix+c.version)

	c.logger.Debug("request", "op", op, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Group: group, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(op, group, resp)
	}

	if result == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTopologySize)).Decode(result); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
