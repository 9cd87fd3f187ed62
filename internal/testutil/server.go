package testutil

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"finitefield.org/trip-planner/internal/content"
	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/httpserver"
	"finitefield.org/trip-planner/internal/planner"
	"finitefield.org/trip-planner/public"
	"finitefield.org/trip-planner/templates"
)

// ServerConfig collects the knobs tests may turn before the server starts.
type ServerConfig struct {
	HTTP     httpserver.Config
	DataDir  string
	Source   days.Source
	DriveURL string
	Days     int
}

// ServerOption customises the test server configuration.
type ServerOption func(*ServerConfig)

// WithDataDir serves and loads day documents from dir, which holds days/.
func WithDataDir(dir string) ServerOption {
	return func(cfg *ServerConfig) { cfg.DataDir = dir }
}

// WithSource overrides the day document source.
func WithSource(src days.Source) ServerOption {
	return func(cfg *ServerConfig) { cfg.Source = src }
}

// WithDriveURL sets the cloud storage link.
func WithDriveURL(url string) ServerOption {
	return func(cfg *ServerConfig) { cfg.DriveURL = url }
}

// NewServer constructs an httptest server running the planner HTTP stack.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := ServerConfig{DataDir: t.TempDir(), Days: 8}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Source == nil {
		cfg.Source = days.NewDirSource(filepath.Join(cfg.DataDir, "days"))
	}

	catalog, err := content.Default(cfg.DriveURL)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	loader := days.NewLoader(cfg.Source)
	registry := planner.NewRegistry(time.Hour, func() *planner.Controller {
		return planner.NewController(planner.Options{
			Days:       cfg.Days,
			DefaultDay: 5,
			Loader:     loader,
			Content:    catalog,
			DriveURL:   cfg.DriveURL,
		})
	})

	assets, err := fs.Sub(public.FS(), "assets")
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	httpCfg := cfg.HTTP
	httpCfg.Address = ":0"
	httpCfg.Bundle = Bundle(t)
	httpCfg.Registry = registry
	httpCfg.DataDir = cfg.DataDir
	httpCfg.Templates = templates.FS()
	httpCfg.Assets = assets
	httpCfg.SessionKey = []byte("test-session-key")

	srv, err := httpserver.New(httpCfg)
	if err != nil {
		t.Fatalf("httpserver: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// Client returns an HTTP client that keeps the session cookie.
func Client(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// Get issues a GET, optionally as an htmx request, and returns the response
// with its body read.
func Get(t testing.TB, client *http.Client, url string, htmx bool) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}
