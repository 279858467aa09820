package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/perceive/internal/config"
	"github.com/jackzampolin/perceive/internal/metrics"
	"github.com/jackzampolin/perceive/internal/providers"
	"github.com/jackzampolin/perceive/internal/testutil"
)

func TestNew_Defaults(t *testing.T) {
	srv, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", srv.Addr())
	}
	if srv.Registry() == nil {
		t.Error("Registry() = nil")
	}
	if srv.IsRunning() {
		t.Error("server should not be running before Start")
	}
}

func TestServer_RequireProvider(t *testing.T) {
	srv, err := New(Config{Registry: providers.NewRegistry()})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"health", "GET", "/health", "", http.StatusOK},
		{"ready without provider", "GET", "/ready", "", http.StatusServiceUnavailable},
		{"extract works offline", "POST", "/api/extract", `{"text":"<point> (1,2) </point>","kind":"point"}`, http.StatusOK},
		{"schema works offline", "GET", "/api/schema", "", http.StatusOK},
		{"analyze needs provider", "POST", "/api/analyze", `{}`, http.StatusServiceUnavailable},
		{"detect needs provider", "POST", "/api/detect", `{}`, http.StatusServiceUnavailable},
		{"unknown route", "GET", "/api/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestServer_WithRegistry(t *testing.T) {
	registry := providers.NewRegistry()
	registry.Register("mock", providers.NewMockClient(`<point mention="dot"> (5,6) </point>`))

	srv, err := New(Config{Registry: registry})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", strings.NewReader(
		`{"message":"find the dot","output":"point","media":{"url":"https://example.com/a.png"}}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Pointing struct {
			Points []struct {
				X, Y    uint32
				Mention string
			} `json:"points"`
		} `json:"pointing"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Pointing.Points) != 1 || body.Pointing.Points[0].Mention != "dot" {
		t.Errorf("pointing = %+v", body.Pointing)
	}

	calls := srv.Metrics().List(metrics.Filter{Op: "analyze"}, 0)
	if len(calls) != 1 || !calls[0].Success {
		t.Errorf("recorded calls = %+v", calls)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, err := New(Config{Port: "0", Registry: providers.NewRegistry()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Fatal("server did not start")
	}

	url := "http://" + srv.Addr()
	if err := testutil.WaitForServer(url, 2*time.Second); err != nil {
		t.Fatal(err)
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 5*time.Second); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_StartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	srv, err := New(Config{Port: port})
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected listen error")
	}
	if srv.IsRunning() {
		t.Error("server should not be running after failed start")
	}
}

func TestServer_ConfigReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(`
providers:
  perceptron:
    enabled: false
  first:
    type: mock
    enabled: true
defaults:
  provider: first
`)

	mgr, err := config.NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(Config{ConfigManager: mgr})
	if err != nil {
		t.Fatal(err)
	}
	if !srv.Registry().Has("first") {
		t.Fatalf("providers = %v, want first registered", srv.Registry().List())
	}

	mgr.WatchConfig()
	time.Sleep(100 * time.Millisecond)

	write(`
providers:
  perceptron:
    enabled: false
  first:
    type: mock
    enabled: true
  second:
    type: mock
    enabled: true
defaults:
  provider: second
`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !srv.Registry().Has("second") {
		time.Sleep(50 * time.Millisecond)
	}
	if !srv.Registry().Has("second") {
		t.Fatalf("registry not reloaded: %v", srv.Registry().List())
	}
	if name, _, err := srv.Registry().Default(); err != nil || name != "second" {
		t.Errorf("Default() = %q, %v; want second", name, err)
	}
}
