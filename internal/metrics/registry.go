package metrics

import (
	"bytes"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric and label names of the exported delay series.
const (
	DelayMetricName = "proxy_delay_ms"
	LabelGroup      = "group_name"
	LabelProxy      = "proxy_name"
)

// TextContentType is the content type of the text exposition format.
const TextContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds the canonical set of exported series. It is safe for
// concurrent use: each series is updated atomically and Gather may run
// while a cycle is writing.
type Registry struct {
	reg   *prometheus.Registry
	delay *prometheus.GaugeVec
}

// NewRegistry creates a Registry with the proxy_delay_ms gauge registered.
func NewRegistry() *Registry {
	delay := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: DelayMetricName,
			Help: "Proxy delay in milliseconds",
		},
		[]string{LabelGroup, LabelProxy},
	)
	reg := prometheus.NewRegistry()
	reg.MustRegister(delay)
	return &Registry{reg: reg, delay: delay}
}

// SetDelay records the latest delay of proxy within group, replacing any
// previous value for the same pair.
func (r *Registry) SetDelay(group, proxy string, delayMs uint32) {
	r.delay.WithLabelValues(group, proxy).Set(float64(delayMs))
}

// Gather implements prometheus.Gatherer.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// WriteText renders everything g gathers in the Prometheus text exposition
// format. Output is buffered so that nothing is written to w on failure.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return &ExportError{Op: "gather", Err: err}
	}
	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return &ExportError{Op: "encode", Err: err}
		}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &ExportError{Op: "encode", Err: err}
	}
	return nil
}
