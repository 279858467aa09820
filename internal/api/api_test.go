package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	var resp struct {
		Status string `json:"status"`
	}
	if err := NewClient(server.URL).Get(context.Background(), "/health", &resp); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["text"]})
	}))
	defer server.Close()

	var resp map[string]string
	err := NewClient(server.URL).Post(context.Background(), "/api/extract", map[string]string{"text": "hi"}, &resp)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp["echo"] != "hi" {
		t.Errorf("echo = %q", resp["echo"])
	}
}

func TestClient_ServerError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"json error", `{"error":"no vision provider configured"}`, "no vision provider configured"},
		{"plain body", `upstream exploded`, "upstream exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).Get(context.Background(), "/x", nil)
			var serr *ServerError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *ServerError, got %v", err)
			}
			if serr.StatusCode != http.StatusServiceUnavailable || serr.Message != tt.wantMsg {
				t.Errorf("got %+v", serr)
			}
		})
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"kind": "box", "count": 2}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `"kind": "box"`) {
			t.Errorf("unexpected JSON output: %s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "kind: box") {
			t.Errorf("unexpected YAML output: %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := OutputTo(&bytes.Buffer{}, "toml", data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("GetOutputFormat() = %s", GetOutputFormat())
	}
	SetOutputFormat("bogus")
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("unknown format should fall back to %s, got %s", DefaultOutput, GetOutputFormat())
	}
}

func TestOutputToFile(t *testing.T) {
	defer SetOutputFormat("yaml")
	SetOutputFormat("json")

	path := filepath.Join(t.TempDir(), "out.json")
	if err := OutputToFile(map[string]int{"n": 1}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil || got["n"] != 1 {
		t.Errorf("file contents = %s (err %v)", data, err)
	}
}
