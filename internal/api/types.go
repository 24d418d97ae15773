package api

// HistoryEntry is one timestamped delay sample recorded by the controller.
// A Delay of 0 means the probe failed or timed out.
type HistoryEntry struct {
	Time  string `json:"time"`
	Delay uint32 `json:"delay"`
}

// TestData is the per-target probe record kept under ProxyNode.Extra.
type TestData struct {
	Alive   bool           `json:"alive"`
	History []HistoryEntry `json:"history"`
}

// ProxyNode describes a single proxy or proxy group as reported by GET /proxies.
type ProxyNode struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	// Type is the protocol or group kind, e.g. "Shadowsocks" or "Selector".
	Type string `json:"type"`

	// All lists member proxy names. Only groups carry it.
	All []string `json:"all,omitempty"`

	// Now is the currently selected member of a group.
	Now string `json:"now,omitempty"`

	UDP *bool `json:"udp,omitempty"`

	// History is the generic delay history, most recent last.
	History []HistoryEntry `json:"history,omitempty"`

	// Extra holds delay histories keyed by the probe URL they were
	// measured against.
	Extra map[string]TestData `json:"extra,omitempty"`
}

// IsGroup reports whether the node has members.
func (n *ProxyNode) IsGroup() bool {
	return len(n.All) > 0
}

// Topology is a single snapshot of every proxy and group known to the controller.
type Topology struct {
	Proxies map[string]ProxyNode `json:"proxies"`
}

// Lookup returns the node with the given name.
func (t *Topology) Lookup(name string) (ProxyNode, bool) {
	if t == nil {
		return ProxyNode{}, false
	}
	n, ok := t.Proxies[name]
	return n, ok
}
