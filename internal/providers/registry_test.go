package providers

import "testing"

func TestRegistry_ReloadAddsUpdatesRemoves(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]VisionProviderConfig{
			"openrouter": {Type: "openrouter", APIKey: "key-1", Enabled: true},
			"disabled":   {Type: "openrouter", APIKey: "key-2", Enabled: false},
			"keyless":    {Type: "groq", Enabled: true},
		},
	})

	if !r.Has("openrouter") {
		t.Error("enabled provider not registered")
	}
	if r.Has("disabled") {
		t.Error("disabled provider registered")
	}
	if r.Has("keyless") {
		t.Error("provider without API key registered")
	}

	r.Reload(RegistryConfig{
		Providers: map[string]VisionProviderConfig{
			"groq": {Type: "groq", APIKey: "key-3", Enabled: true},
		},
	})

	if r.Has("openrouter") {
		t.Error("removed provider still registered after reload")
	}
	client, err := r.Get("groq")
	if err != nil {
		t.Fatalf("Get(groq) error = %v", err)
	}
	if _, ok := client.(*GroqClient); !ok {
		t.Errorf("client = %T, want *GroqClient", client)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); err == nil {
		t.Error("expected error for unknown client")
	}
}

func TestRegistry_UnknownTypeSkipped(t *testing.T) {
	r := NewRegistry()
	r.Reload(RegistryConfig{
		Providers: map[string]VisionProviderConfig{
			"weird": {Type: "carrier-pigeon", APIKey: "key", Enabled: true},
		},
	})
	if r.Has("weird") {
		t.Error("unknown provider type registered")
	}
}
