package repomirror

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/config"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
)

// writeTestConfig writes a config whose hosts point at listingURL and a
// registry holding repos. It returns the config path.
func writeTestConfig(t *testing.T, listingURL string, repos ...model.Repository) string {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, config.LocalConfigFilename)
	cfg := config.DefaultConfig()
	if listingURL != "" {
		cfg.Hosts.Listing = listingURL
		cfg.Hosts.Raw = listingURL + "/raw"
	}
	cfg.Defaults.PollIntervalMS = 5
	if err := config.Save(&cfg, cfgPath); err != nil {
		t.Fatalf("save config: %v", err)
	}
	reg := &registry.Registry{Repositories: repos}
	if err := registry.Save(reg, config.ResolveRegistryPath(cfgPath, &cfg)); err != nil {
		t.Fatalf("save registry: %v", err)
	}
	return cfgPath
}

func withTestConfig(t *testing.T, cfgPath string) func() {
	t.Helper()
	prevConfig := flagConfig
	prevQuiet, prevVerbose := flagQuiet, flagVerbose
	flagConfig = cfgPath
	flagQuiet, flagVerbose = false, 0
	exitCode = 0

	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(filepath.Dir(cfgPath)); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	return func() {
		flagConfig = prevConfig
		flagQuiet, flagVerbose = prevQuiet, prevVerbose
		_ = os.Chdir(origWD)
	}
}

// captureOutput points cmd's output streams at fresh buffers.
func captureOutput(t *testing.T, cmd *cobra.Command) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	t.Cleanup(func() {
		cmd.SetOut(os.Stdout)
		cmd.SetErr(os.Stderr)
		cmd.SetIn(os.Stdin)
	})
	return out, errOut
}

func loadTestRegistry(t *testing.T, cfgPath string) *registry.Registry {
	t.Helper()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	reg, err := registry.Load(config.ResolveRegistryPath(cfgPath, cfg))
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func widgetRepo() model.Repository {
	return model.Repository{Name: "widget", Owner: "acme", Project: "widget", DefaultBranch: "main", LastTarget: model.UnknownTarget}
}

// newWidgetSite serves one release of acme/widget holding two files.
func newWidgetSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/acme/widget/tags":                `<a href="/acme/widget/releases/tag/v1.0">v1.0</a><relative-time datetime="2024-05-01T00:00:00Z"></relative-time><a href="/acme/widget/commit/0123456789abcdef">0123456</a>`,
		"/acme/widget/branches/all":        `<a class="branch-name" href="/acme/widget/tree/main">main</a>`,
		"/acme/widget/tree/v1.0":           `<a class="js-navigation-open" href="/acme/widget/blob/v1.0/README.md">README.md</a><a class="js-navigation-open" href="/acme/widget/tree/v1.0/docs">docs</a>`,
		"/acme/widget/tree/v1.0/docs":      `<a class="js-navigation-open" href="/acme/widget/blob/v1.0/docs/guide">guide</a>`,
		"/raw/acme/widget/v1.0/README.md":  "# widget\n",
		"/raw/acme/widget/v1.0/docs/guide": "read me",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
