package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const fakeProxies = `{"proxies": {
	"Auto": {"name": "Auto", "type": "URLTest", "all": ["HK", "JP"]},
	"HK": {"name": "HK", "type": "Shadowsocks", "history": [{"time": "t1", "delay": 120}, {"time": "t2", "delay": 42}]},
	"JP": {"name": "JP", "type": "Vmess", "extra": {"http://probe.test/204": {"alive": true, "history": [{"time": "t1", "delay": 7}]}}}
}}`

// newFakeController serves the delay-test and proxy endpoints of a proxy
// controller. Every GET /proxies is signalled on the returned channel.
func newFakeController(t *testing.T) (*httptest.Server, <-chan struct{}) {
	t.Helper()
	fetched := make(chan struct{}, 16)
	mux := http.NewServeMux()
	mux.HandleFunc("/group/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/delay") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/proxies", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fakeProxies))
		select {
		case fetched <- struct{}{}:
		default:
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fetched
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// useConfig points the --config flag at path for the duration of the test.
func useConfig(t *testing.T, path string) {
	t.Helper()
	origCfg, origLevel := cfgFile, logLevel
	t.Cleanup(func() { cfgFile, logLevel = origCfg, origLevel })
	cfgFile = path
	logLevel = "error"
}

// newTestCommand returns a bare command carrying ctx whose output goes to out.
func newTestCommand(ctx context.Context, out io.Writer) *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(ctx)
	if out != nil {
		c.SetOut(out)
	}
	return c
}

// testContext returns a context canceled when the test finishes, matching
// testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
