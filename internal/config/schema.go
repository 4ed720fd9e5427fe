package config

import "github.com/retrodraw/retrodraw/internal/providers"

// Config holds retrodraw configuration.
// Stored at: ~/.retrodraw/config.yaml
type Config struct {
	Server     ServerCfg                    `mapstructure:"server" json:"server" yaml:"server"`
	Languages  []string                     `mapstructure:"languages" json:"languages" yaml:"languages"`
	Preprocess PreprocessCfg                `mapstructure:"preprocess" json:"preprocess" yaml:"preprocess"`
	Local      LocalCfg                     `mapstructure:"local" json:"local" yaml:"local"`
	Providers  map[string]VisionProviderCfg `mapstructure:"providers" json:"providers" yaml:"providers"`
	Remote     RemoteCfg                    `mapstructure:"remote" json:"remote" yaml:"remote"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" json:"host" yaml:"host"`
	Port int    `mapstructure:"port" json:"port" yaml:"port"`
}

// PreprocessCfg tunes raster-page preparation before recognition.
type PreprocessCfg struct {
	Contrast float64 `mapstructure:"contrast" json:"contrast" yaml:"contrast"`    // contrast factor, default 2.0
	DPIFloor int     `mapstructure:"dpi_floor" json:"dpi_floor" yaml:"dpi_floor"` // minimum effective DPI, default 300
}

// LocalCfg configures the local OCR engine.
type LocalCfg struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	// PageSegModes is the ordered list of segmentation modes to try.
	PageSegModes []int `mapstructure:"page_seg_modes" json:"page_seg_modes" yaml:"page_seg_modes"`
}

// VisionProviderCfg configures a remote vision provider.
type VisionProviderCfg struct {
	Type           string `mapstructure:"type" json:"type" yaml:"type"`          // "openrouter", "groq"
	APIKey         string `mapstructure:"api_key" json:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL        string `mapstructure:"base_url" json:"base_url" yaml:"base_url,omitempty"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// RemoteCfg configures the model cascade run over the chosen provider.
type RemoteCfg struct {
	// Provider names the entry in Providers to run the cascade on.
	Provider     string `mapstructure:"provider" json:"provider" yaml:"provider"`
	DefaultModel string `mapstructure:"default_model" json:"default_model" yaml:"default_model"`
	// MaxTokens bounds each model response.
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens" yaml:"max_tokens"`
	// Model tiers, tried specialized -> general -> budget.
	Specialized []string `mapstructure:"specialized" json:"specialized" yaml:"specialized"`
	General     []string `mapstructure:"general" json:"general" yaml:"general"`
	Budget      []string `mapstructure:"budget" json:"budget" yaml:"budget"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	tiers := providers.DefaultModelTiers()
	return &Config{
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Languages: []string{"rus", "eng"},
		Preprocess: PreprocessCfg{
			Contrast: 2.0,
			DPIFloor: 300,
		},
		Local: LocalCfg{
			Enabled:      true,
			PageSegModes: []int{11, 6, 4},
		},
		Providers: map[string]VisionProviderCfg{
			"openrouter": {
				Type:           "openrouter",
				APIKey:         "${OPENROUTER_API_KEY}",
				TimeoutSeconds: 60,
				Enabled:        true,
			},
			"groq": {
				Type:           "groq",
				APIKey:         "${GROQ_API_KEY}",
				TimeoutSeconds: 60,
				Enabled:        false,
			},
		},
		Remote: RemoteCfg{
			Provider:     "openrouter",
			DefaultModel: providers.DefaultModel,
			MaxTokens:    8192,
			Specialized:  tiers.Specialized,
			General:      tiers.General,
			Budget:       tiers.Budget,
		},
	}
}

// GetProvider returns a vision provider config by name.
func (c *Config) GetProvider(name string) (VisionProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled vision providers.
func (c *Config) EnabledProviders() map[string]VisionProviderCfg {
	result := make(map[string]VisionProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// Tiers assembles the cascade tiers from the remote section.
func (c *Config) Tiers() providers.ModelTiers {
	return providers.ModelTiers{
		Specialized: c.Remote.Specialized,
		General:     c.Remote.General,
		Budget:      c.Remote.Budget,
	}
}
