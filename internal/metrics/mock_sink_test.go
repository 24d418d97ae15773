package metrics

import (
	"errors"
	"sync"

	dto "github.com/prometheus/client_model/go"
)

// sinkWrite records a single SetDelay call.
type sinkWrite struct {
	Group string
	Proxy string
	Delay uint32
}

// mockSink records SetDelay calls in order.
type mockSink struct {
	mu     sync.Mutex
	writes []sinkWrite
}

func (m *mockSink) SetDelay(group, proxy string, delayMs uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, sinkWrite{Group: group, Proxy: proxy, Delay: delayMs})
}

func (m *mockSink) all() []sinkWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sinkWrite(nil), m.writes...)
}

// failingGatherer always fails to gather.
type failingGatherer struct{}

func (failingGatherer) Gather() ([]*dto.MetricFamily, error) {
	return nil, errors.New("collector exploded")
}
