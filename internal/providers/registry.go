package providers

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Provider types accepted in configuration.
const (
	TypePerceptron = "perceptron"
	TypeOpenAI     = "openai"
	TypeMock       = "mock"
)

// Registry holds named vision clients. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]VisionClient
	configs     map[string]ProviderConfig
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]VisionClient),
		configs: make(map[string]ProviderConfig),
		logger:  slog.Default(),
	}
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	// Default names the provider used when a request does not pick one.
	Default string

	// Providers maps provider names to their config
	Providers map[string]ProviderConfig
}

// ProviderConfig matches config.ProviderCfg with a resolved API key.
type ProviderConfig struct {
	Type       string // "perceptron", "openai", "mock"
	BaseURL    string
	Model      string
	APIKey     string
	Headers    map[string]string
	RateLimit  float64 // Requests per second
	MaxRetries int
	Timeout    time.Duration
	Enabled    bool
}

// usable reports whether the provider should be registered. OpenAI
// requires a key; Perceptron endpoints may be self-hosted without one.
func (c ProviderConfig) usable() bool {
	if !c.Enabled {
		return false
	}
	if c.Type == TypeOpenAI {
		return c.APIKey != ""
	}
	return true
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.Reload(cfg)
	return r
}

// SetLogger sets the logger for the registry and clients it creates.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a client by name, replacing any existing one.
func (r *Registry) Register(name string, client VisionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	delete(r.configs, name)
	r.logger.Info("registered vision client", "name", name, "type", client.Name())
}

// Unregister removes a client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	delete(r.configs, name)
	r.logger.Info("unregistered vision client", "name", name)
}

// SetDefault sets the provider returned by Default.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// Get returns a client by name.
func (r *Registry) Get(name string) (VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoClient, name)
	}
	return client, nil
}

// Default returns the configured default client. Without a configured
// default, the alphabetically first registered client is used.
func (r *Registry) Default() (string, VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName != "" {
		client, ok := r.clients[r.defaultName]
		if !ok {
			return "", nil, fmt.Errorf("%w: default provider %s is not registered", ErrNoClient, r.defaultName)
		}
		return r.defaultName, client, nil
	}

	names := slices.Sorted(maps.Keys(r.clients))
	if len(names) == 0 {
		return "", nil, ErrNoClient
	}
	return names[0], r.clients[names[0]], nil
}

// Resolve returns the named client, or the default when name is empty.
func (r *Registry) Resolve(name string) (string, VisionClient, error) {
	if name == "" {
		return r.Default()
	}
	client, err := r.Get(name)
	if err != nil {
		return "", nil, err
	}
	return name, client, nil
}

// List returns all registered client names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.clients))
}

// Has checks if a client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// DefaultName returns the configured default provider name, which may be
// empty.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured are unregistered and providers
// with changed settings are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultName = cfg.Default
	want := make(map[string]bool)

	for name, provCfg := range cfg.Providers {
		if !provCfg.usable() {
			continue
		}

		existing, hasExisting := r.configs[name]
		if hasExisting && existing.equal(provCfg) {
			want[name] = true
			continue
		}

		client, err := createClient(provCfg, r.logger)
		if err != nil {
			r.logger.Warn("skipping provider", "name", name, "error", err)
			continue
		}
		want[name] = true
		r.clients[name] = client
		r.configs[name] = provCfg
		if hasExisting {
			r.logger.Info("updated vision client", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("registered vision client", "name", name, "type", provCfg.Type)
		}
	}

	// Remove config-driven providers that are no longer configured.
	// Clients added with Register are left alone.
	for name := range r.configs {
		if !want[name] {
			delete(r.clients, name)
			delete(r.configs, name)
			r.logger.Info("unregistered vision client", "name", name)
		}
	}
}

// createClient creates a vision client based on provider type.
func createClient(cfg ProviderConfig, logger *slog.Logger) (VisionClient, error) {
	switch cfg.Type {
	case TypePerceptron, "":
		return NewPerceptronClient(PerceptronConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Headers:      cfg.Headers,
			Timeout:      cfg.Timeout,
			RPS:          cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
			Logger:       logger,
		}), nil
	case TypeOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RPS:          cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
			Logger:       logger,
		}), nil
	case TypeMock:
		return NewMockClient(""), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

func (c ProviderConfig) equal(o ProviderConfig) bool {
	return c.Type == o.Type &&
		c.BaseURL == o.BaseURL &&
		c.Model == o.Model &&
		c.APIKey == o.APIKey &&
		c.RateLimit == o.RateLimit &&
		c.MaxRetries == o.MaxRetries &&
		c.Timeout == o.Timeout &&
		c.Enabled == o.Enabled &&
		maps.Equal(c.Headers, o.Headers)
}
