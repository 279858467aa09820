package providers

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient("")

		r.Register("test", mock)

		client, err := r.Get("test")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Get("nonexistent"); !errors.Is(err, ErrNoClient) {
			t.Errorf("expected ErrNoClient, got %v", err)
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		r := NewRegistry()
		r.Register("b", NewMockClient(""))
		r.Register("a", NewMockClient(""))

		names := r.List()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("List() = %v", names)
		}
	})

	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test", NewMockClient(""))
		r.Unregister("test")
		if r.Has("test") {
			t.Error("client should be removed")
		}
	})

	t.Run("default", func(t *testing.T) {
		r := NewRegistry()
		if _, _, err := r.Default(); !errors.Is(err, ErrNoClient) {
			t.Errorf("empty registry: expected ErrNoClient, got %v", err)
		}

		r.Register("zeta", NewMockClient(""))
		r.Register("alpha", NewMockClient(""))
		name, _, err := r.Default()
		if err != nil || name != "alpha" {
			t.Errorf("Default() = (%q, %v), want alpha", name, err)
		}

		r.SetDefault("zeta")
		name, _, err = r.Default()
		if err != nil || name != "zeta" {
			t.Errorf("Default() = (%q, %v), want zeta", name, err)
		}

		r.SetDefault("missing")
		if _, _, err := r.Default(); !errors.Is(err, ErrNoClient) {
			t.Errorf("missing default: expected ErrNoClient, got %v", err)
		}
	})

	t.Run("resolve", func(t *testing.T) {
		r := NewRegistry()
		r.Register("only", NewMockClient(""))

		name, _, err := r.Resolve("")
		if err != nil || name != "only" {
			t.Errorf("Resolve(\"\") = (%q, %v)", name, err)
		}
		if _, _, err := r.Resolve("other"); !errors.Is(err, ErrNoClient) {
			t.Errorf("Resolve(other) error = %v", err)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Register("shared", NewMockClient(""))
			}()
			go func() {
				defer wg.Done()
				r.List()
				r.Has("shared")
			}()
		}
		wg.Wait()
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{
		Default: "local",
		Providers: map[string]ProviderConfig{
			"local":    {Type: TypePerceptron, BaseURL: "http://localhost:8000", Enabled: true},
			"openai":   {Type: TypeOpenAI, APIKey: "sk-test", Enabled: true},
			"nokey":    {Type: TypeOpenAI, Enabled: true},
			"disabled": {Type: TypePerceptron, Enabled: false},
			"bogus":    {Type: "carrier-pigeon", Enabled: true},
			"mock":     {Type: TypeMock, Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg, nil)

	names := r.List()
	want := []string{"local", "mock", "openai"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	client, _ := r.Get("local")
	if _, ok := client.(*PerceptronClient); !ok {
		t.Errorf("local is %T, want *PerceptronClient", client)
	}
	client, _ = r.Get("openai")
	if _, ok := client.(*OpenAIClient); !ok {
		t.Errorf("openai is %T, want *OpenAIClient", client)
	}

	name, _, err := r.Default()
	if err != nil || name != "local" {
		t.Errorf("Default() = (%q, %v), want local", name, err)
	}
}

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"a": {Type: TypePerceptron, Model: "m1", Enabled: true},
			"b": {Type: TypePerceptron, Enabled: true},
		},
	}, nil)
	manual := NewMockClient("")
	r.Register("manual", manual)

	before, _ := r.Get("a")
	unchanged, _ := r.Get("b")

	r.Reload(RegistryConfig{
		Default: "a",
		Providers: map[string]ProviderConfig{
			"a": {Type: TypePerceptron, Model: "m2", Enabled: true},
			"b": {Type: TypePerceptron, Enabled: true},
		},
	})

	after, _ := r.Get("a")
	if after == before {
		t.Error("changed provider should be recreated")
	}
	if pc := after.(*PerceptronClient); pc.Model() != "m2" {
		t.Errorf("Model() = %q, want m2", pc.Model())
	}
	if still, _ := r.Get("b"); still != unchanged {
		t.Error("unchanged provider should be kept")
	}
	if r.DefaultName() != "a" {
		t.Errorf("DefaultName() = %q, want a", r.DefaultName())
	}

	r.Reload(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"b": {Type: TypePerceptron, Enabled: false},
		},
	})
	if r.Has("a") || r.Has("b") {
		t.Errorf("removed providers still registered: %v", r.List())
	}
	if got, _ := r.Get("manual"); got != manual {
		t.Error("manually registered client should survive reload")
	}
}
