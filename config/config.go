// Package config loads server configuration from the environment, bound
// through spf13/viper with the FETCHMCP_ prefix (§6).
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configuration knob the server recognizes.
type Config struct {
	Remote     RemoteConfig
	Strategy   StrategyConfig
	Storage    StorageConfig
	Extractor  ExtractorConfig
	Map        MapConfig
	HTTP       HTTPConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
	DebugTools bool
}

// RemoteConfig configures the remote scraping-service adapter.
type RemoteConfig struct {
	APIKey  string
	BaseURL string
}

// StrategyConfig configures the strategy engine's global optimization axis
// and learned-preference persistence.
type StrategyConfig struct {
	OptimizeFor string // cost|speed
	StorePath   string
}

// StorageConfig configures the resource cache backend and retention.
type StorageConfig struct {
	Backend      string // memory|filesystem
	Root         string
	TTL          time.Duration
	MaxBytes     int64
	MaxItems     int
}

// ExtractorConfig configures the LLM field-extraction provider.
type ExtractorConfig struct {
	Provider string // anthropic|openai|openai-compatible|none
	APIKey   string
	BaseURL  string
	Model    string
}

// MapConfig configures default parameters for the map tool.
type MapConfig struct {
	DefaultCountry     string
	DefaultLanguages   []string
	DefaultMaxResults  int
}

// HTTPConfig configures the streamable-HTTP transport binary.
type HTTPConfig struct {
	Port             int
	Production       bool
	AllowedHosts     []string
	AllowedOrigins   []string
	SessionResumable bool
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string
	Format string // json|text
}

// RateLimitConfig configures the per-tool token-bucket limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads configuration from the environment (FETCHMCP_ prefix) with
// defaults for every knob. A missing or unset env var never prevents
// startup; defaults are always usable for local/dev operation.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("FETCHMCP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("optimize_for", "cost")
	v.SetDefault("strategy_store_path", "./data/strategies.md")
	v.SetDefault("storage_backend", "memory")
	v.SetDefault("storage_root", "./data/resources")
	v.SetDefault("storage_ttl_ms", 0)
	v.SetDefault("storage_max_bytes", 0)
	v.SetDefault("storage_max_items", 0)
	v.SetDefault("extractor_provider", "none")
	v.SetDefault("map_default_country", "")
	v.SetDefault("map_default_languages", "")
	v.SetDefault("map_default_max_results", 20)
	v.SetDefault("http_port", 8080)
	v.SetDefault("http_production", false)
	v.SetDefault("http_allowed_hosts", "")
	v.SetDefault("http_allowed_origins", "")
	v.SetDefault("http_session_resumable", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("rate_limit_requests_per_second", 5.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("debug_tools", false)

	ttlMs := v.GetInt64("storage_ttl_ms")
	if ttlMs > 30*24*3600*1000 {
		ttlMs = 30 * 24 * 3600 * 1000
	}
	maxBytes := v.GetInt64("storage_max_bytes")
	switch {
	case maxBytes > 10<<30:
		maxBytes = 10 << 30
	case maxBytes > 0 && maxBytes < 1<<10:
		maxBytes = 1 << 10
	}

	return &Config{
		Remote: RemoteConfig{
			APIKey:  v.GetString("remote_api_key"),
			BaseURL: v.GetString("remote_base_url"),
		},
		Strategy: StrategyConfig{
			OptimizeFor: v.GetString("optimize_for"),
			StorePath:   v.GetString("strategy_store_path"),
		},
		Storage: StorageConfig{
			Backend:  v.GetString("storage_backend"),
			Root:     v.GetString("storage_root"),
			TTL:      time.Duration(ttlMs) * time.Millisecond,
			MaxBytes: maxBytes,
			MaxItems: v.GetInt("storage_max_items"),
		},
		Extractor: ExtractorConfig{
			Provider: v.GetString("extractor_provider"),
			APIKey:   v.GetString("extractor_api_key"),
			BaseURL:  v.GetString("extractor_base_url"),
			Model:    v.GetString("extractor_model"),
		},
		Map: MapConfig{
			DefaultCountry:    v.GetString("map_default_country"),
			DefaultLanguages:  splitNonEmpty(v.GetString("map_default_languages")),
			DefaultMaxResults: v.GetInt("map_default_max_results"),
		},
		HTTP: HTTPConfig{
			Port:             v.GetInt("http_port"),
			Production:       v.GetBool("http_production"),
			AllowedHosts:     splitNonEmpty(v.GetString("http_allowed_hosts")),
			AllowedOrigins:   splitNonEmpty(v.GetString("http_allowed_origins")),
			SessionResumable: v.GetBool("http_session_resumable"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("rate_limit_requests_per_second"),
			Burst:             v.GetInt("rate_limit_burst"),
		},
		DebugTools: v.GetBool("debug_tools"),
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
