package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds references to vision clients. It supports
// config-driven instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]VisionClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]VisionClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a vision client by name.
func (r *Registry) Register(name string, client VisionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.logger != nil {
		r.logger.Info("registered vision client", "name", name)
	}
}

// Unregister removes a vision client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.logger != nil {
		r.logger.Info("unregistered vision client", "name", name)
	}
}

// Get returns a vision client by name.
func (r *Registry) Get(name string) (VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("vision client not found: %s", name)
	}
	return client, nil
}

// Has checks if a vision client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// List returns all registered vision client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// RegistryConfig defines the vision providers to instantiate from
// config, with API keys already resolved.
type RegistryConfig struct {
	Providers map[string]VisionProviderConfig
}

// VisionProviderConfig matches config.VisionProviderCfg with a
// resolved API key.
type VisionProviderConfig struct {
	Type           string // "openrouter", "groq"
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	Enabled        bool
}

// NewRegistryFromConfig creates a registry with clients based on
// configuration. Only enabled providers with API keys are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		if client := createVisionClient(provCfg); client != nil {
			r.clients[name] = client
		}
	}
	return r
}

// Reload updates the registry based on new configuration. Providers no
// longer configured are unregistered; changed ones are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		client := createVisionClient(provCfg)
		if client == nil {
			if r.logger != nil {
				r.logger.Warn("unknown vision provider type", "name", name, "type", provCfg.Type)
			}
			continue
		}
		want[name] = true

		_, hasExisting := r.clients[name]
		r.clients[name] = client
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated vision client", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered vision client", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			if r.logger != nil {
				r.logger.Info("unregistered vision client", "name", name)
			}
		}
	}
}

// createVisionClient creates a client based on provider type.
func createVisionClient(cfg VisionProviderConfig) VisionClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
	case "groq":
		return NewGroqClient(GroqConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
	default:
		return nil
	}
}
