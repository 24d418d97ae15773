package metrics

import (
	"log/slog"

	"github.com/plexsphere/proxymon/internal/api"
)

// DelaySink receives one delay sample per (group, proxy) pair.
type DelaySink interface {
	SetDelay(group, proxy string, delayMs uint32)
}

// UpdateStats summarizes a single Update call.
type UpdateStats struct {
	// Groups is the number of monitored groups that resolved to a group node.
	Groups int
	// Samples is the number of (group, proxy) samples written.
	Samples int
	// Skipped counts unresolvable groups and members.
	Skipped int
}

// Reshaper flattens a proxy topology into per-member delay samples.
type Reshaper struct {
	sink   DelaySink
	logger *slog.Logger
}

// NewReshaper creates a Reshaper writing into sink.
func NewReshaper(sink DelaySink, logger *slog.Logger) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{
		sink:   sink,
		logger: logger.With("component", "reshaper"),
	}
}

// Update writes the latest delay of every member of every monitored group.
// Groups or members missing from topo are skipped with a warning.
func (r *Reshaper) Update(topo *api.Topology, groups []string, probeURL string) UpdateStats {
	var stats UpdateStats
	for _, group := range groups {
		node, ok := topo.Lookup(group)
		if !ok {
			r.logger.Warn("monitored group not found in proxies", "group", group)
			stats.Skipped++
			continue
		}
		if !node.IsGroup() {
			r.logger.Warn("monitored name is not a group, skipping", "group", group, "type", node.Type)
			stats.Skipped++
			continue
		}
		stats.Groups++

		for _, member := range node.All {
			proxy, ok := topo.Lookup(member)
			if !ok {
				r.logger.Warn("group member not found in proxies", "group", group, "proxy", member)
				stats.Skipped++
				continue
			}
			delay := LatestDelay(proxy, probeURL)
			r.sink.SetDelay(group, member, delay)
			stats.Samples++
			r.logger.Debug("set delay", "group", group, "proxy", member, "delay_ms", delay)
		}
	}
	return stats
}

// LatestDelay returns the most recent delay of node in milliseconds.
// The history recorded for probeURL under Extra wins over the generic
// History; 0 means no data.
func LatestDelay(node api.ProxyNode, probeURL string) uint32 {
	if td, ok := node.Extra[probeURL]; ok {
		if n := len(td.History); n > 0 {
			return td.History[n-1].Delay
		}
	}
	if n := len(node.History); n > 0 {
		return node.History[n-1].Delay
	}
	return 0
}
