package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// TriggerGroupDelay asks the controller to probe every member of group
// against probeURL, bounded by timeout.
// GET /group/{group}/delay?url={probeURL}&timeout={ms}
func (c *Client) TriggerGroupDelay(ctx context.Context, group, probeURL string, timeout time.Duration) error {
	q := url.Values{}
	q.Set("url", probeURL)
	q.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	path := fmt.Sprintf("/group/%s/delay?%s", url.PathEscape(group), q.Encode())
	return c.get(ctx, "trigger delay", group, path, nil)
}

// Proxies fetches the full proxy/group topology.
// GET /proxies
func (c *Client) Proxies(ctx context.Context) (*Topology, error) {
	var topo Topology
	if err := c.get(ctx, "fetch proxies", "", "/proxies", &topo); err != nil {
		return nil, err
	}
	if topo.Proxies == nil {
		topo.Proxies = map[string]ProxyNode{}
	}
	return &topo, nil
}
