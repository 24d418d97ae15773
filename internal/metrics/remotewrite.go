package metrics

import (
	"math"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of prometheus.WriteRequest and its nested messages
// (remote-write 1.0, prompb/remote.proto and prompb/types.proto).
const (
	fieldWriteRequestTimeseries protowire.Number = 1

	fieldTimeSeriesLabels  protowire.Number = 1
	fieldTimeSeriesSamples protowire.Number = 2

	fieldLabelName  protowire.Number = 1
	fieldLabelValue protowire.Number = 2

	fieldSampleValue     protowire.Number = 1
	fieldSampleTimestamp protowire.Number = 2
)

// Label is a single name/value pair of a remote-write series.
type Label struct {
	Name  string
	Value string
}

// Sample is a single value at a millisecond timestamp.
type Sample struct {
	Value       float64
	TimestampMs int64
}

// TimeSeries is one remote-write series. Labels are sorted by name.
type TimeSeries struct {
	Labels  []Label
	Samples []Sample
}

// SeriesFromFamilies converts gathered gauge, counter and untyped families
// into remote-write series. extra labels are appended to every series;
// a metric's own label of the same name wins. Samples without an explicit
// timestamp are stamped with now.
func SeriesFromFamilies(mfs []*dto.MetricFamily, extra []Label, now time.Time) []TimeSeries {
	nowMs := now.UnixMilli()
	var out []TimeSeries
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var value float64
			switch mf.GetType() {
			case dto.MetricType_GAUGE:
				value = m.GetGauge().GetValue()
			case dto.MetricType_COUNTER:
				value = m.GetCounter().GetValue()
			case dto.MetricType_UNTYPED:
				value = m.GetUntyped().GetValue()
			default:
				continue
			}

			seen := map[string]bool{"__name__": true}
			labels := []Label{{Name: "__name__", Value: mf.GetName()}}
			for _, lp := range m.GetLabel() {
				labels = append(labels, Label{Name: lp.GetName(), Value: lp.GetValue()})
				seen[lp.GetName()] = true
			}
			for _, l := range extra {
				if l.Value == "" || seen[l.Name] {
					continue
				}
				labels = append(labels, l)
			}
			sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })

			ts := nowMs
			if m.TimestampMs != nil {
				ts = m.GetTimestampMs()
			}
			out = append(out, TimeSeries{
				Labels:  labels,
				Samples: []Sample{{Value: value, TimestampMs: ts}},
			})
		}
	}
	return out
}

// MarshalWriteRequest encodes series as a protobuf WriteRequest.
func MarshalWriteRequest(series []TimeSeries) []byte {
	var b []byte
	for _, ts := range series {
		b = protowire.AppendTag(b, fieldWriteRequestTimeseries, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalTimeSeries(ts))
	}
	return b
}

func marshalTimeSeries(ts TimeSeries) []byte {
	var b []byte
	for _, l := range ts.Labels {
		var lb []byte
		lb = protowire.AppendTag(lb, fieldLabelName, protowire.BytesType)
		lb = protowire.AppendString(lb, l.Name)
		lb = protowire.AppendTag(lb, fieldLabelValue, protowire.BytesType)
		lb = protowire.AppendString(lb, l.Value)

		b = protowire.AppendTag(b, fieldTimeSeriesLabels, protowire.BytesType)
		b = protowire.AppendBytes(b, lb)
	}
	for _, s := range ts.Samples {
		var sb []byte
		sb = protowire.AppendTag(sb, fieldSampleValue, protowire.Fixed64Type)
		sb = protowire.AppendFixed64(sb, math.Float64bits(s.Value))
		sb = protowire.AppendTag(sb, fieldSampleTimestamp, protowire.VarintType)
		sb = protowire.AppendVarint(sb, uint64(s.TimestampMs))

		b = protowire.AppendTag(b, fieldTimeSeriesSamples, protowire.BytesType)
		b = protowire.AppendBytes(b, sb)
	}
	return b
}
