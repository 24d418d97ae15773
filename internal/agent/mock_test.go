package agent

import (
	"context"
	"sync"
	"time"

	"github.com/plexsphere/proxymon/internal/api"
	"github.com/plexsphere/proxymon/internal/metrics"
)

// event records the order of scheduler interactions.
type event struct {
	Kind  string // "trigger", "fetch", "update", "push"
	Group string
	At    time.Time
}

// recorder is shared by the mocks so that call order can be asserted.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(kind, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{Kind: kind, Group: group, At: time.Now()})
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, e := range r.all() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// mockAPI is a ProxyAPI returning configured results.
type mockAPI struct {
	rec *recorder

	mu          sync.Mutex
	triggerErrs map[string]error
	topo        *api.Topology
	fetchErr    error
	timeouts    []time.Duration
	probeURLs   []string
	panicFetch  bool
}

func (m *mockAPI) TriggerGroupDelay(_ context.Context, group, probeURL string, timeout time.Duration) error {
	m.rec.add("trigger", group)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = append(m.timeouts, timeout)
	m.probeURLs = append(m.probeURLs, probeURL)
	return m.triggerErrs[group]
}

func (m *mockAPI) Proxies(_ context.Context) (*api.Topology, error) {
	m.rec.add("fetch", "")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicFetch {
		panic("decoder blew up")
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.topo, nil
}

// mockUpdater records Update calls.
type mockUpdater struct {
	rec *recorder

	mu     sync.Mutex
	topos  []*api.Topology
	groups [][]string
}

func (m *mockUpdater) Update(topo *api.Topology, groups []string, _ string) metrics.UpdateStats {
	m.rec.add("update", "")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topos = append(m.topos, topo)
	m.groups = append(m.groups, groups)
	return metrics.UpdateStats{Groups: len(groups)}
}

// mockPusher records Push calls.
type mockPusher struct {
	rec *recorder
	err error
}

func (m *mockPusher) Push(_ context.Context) error {
	m.rec.add("push", "")
	return m.err
}
