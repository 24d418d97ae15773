package metrics

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
)

// maxPushErrorBody is the maximum number of bytes kept from a failed push response.
const maxPushErrorBody = 4096

// Pusher sends gathered metrics to a Prometheus remote-write endpoint.
type Pusher struct {
	cfg        Config
	gatherer   prometheus.Gatherer
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	now        func() time.Time
}

// NewPusher creates a new Pusher. Config defaults are applied automatically.
func NewPusher(cfg Config, gatherer prometheus.Gatherer, version string, logger *slog.Logger) *Pusher {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pusher{
		cfg:        cfg,
		gatherer:   gatherer,
		httpClient: &http.Client{Timeout: cfg.PushTimeout},
		userAgent:  "proxymon/" + version,
		logger:     logger.With("component", "pusher"),
		now:        time.Now,
	}
}

// Push gathers the current metrics and POSTs them as a snappy-compressed
// remote-write request. Failures are returned as *ExportError.
func (p *Pusher) Push(ctx context.Context) error {
	mfs, err := p.gatherer.Gather()
	if err != nil {
		return &ExportError{Op: "gather", Err: err}
	}

	extra := []Label{
		{Name: "job", Value: p.cfg.Job},
		{Name: "reporter", Value: p.cfg.Reporter},
	}
	series := SeriesFromFamilies(mfs, extra, p.now())
	if len(series) == 0 {
		p.logger.Debug("no series to push")
		return nil
	}
	body := snappy.Encode(nil, MarshalWriteRequest(series))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.PushURL, bytes.NewReader(body))
	if err != nil {
		return &ExportError{Op: "push", Err: err}
	}
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ExportError{Op: "push", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxPushErrorBody))
		return &ExportError{Op: "push", StatusCode: resp.StatusCode, Body: string(msg)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPushErrorBody))

	p.logger.Info("pushed metrics", "url", p.cfg.PushURL, "series", len(series))
	return nil
}
