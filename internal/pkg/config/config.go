package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Geocode   GeocodeConfig   `mapstructure:"geocode"`
	Google    GoogleConfig    `mapstructure:"google"`
	Here      HereConfig      `mapstructure:"here"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
}

// GeocodeConfig controls the fallback chain.
type GeocodeConfig struct {
	// Providers is the registration order, which is also the default attempt order.
	Providers        []string `mapstructure:"providers"`
	FetchTimeoutMS   int      `mapstructure:"fetch_timeout_ms"`
	Workers          int      `mapstructure:"workers"`
	BoundsConvention string   `mapstructure:"bounds_convention"`
}

// FetchTimeout is the per-call upstream timeout.
func (g GeocodeConfig) FetchTimeout() time.Duration {
	return time.Duration(g.FetchTimeoutMS) * time.Millisecond
}

type GoogleConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

type HereConfig struct {
	AppID    string `mapstructure:"app_id"`
	AppCode  string `mapstructure:"app_code"`
	Endpoint string `mapstructure:"endpoint"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

var knownProviders = map[string]bool{"google": true, "here": true}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 10)
	v.SetDefault("geocode.providers", []string{"google", "here"})
	v.SetDefault("geocode.fetch_timeout_ms", 1000)
	v.SetDefault("geocode.workers", 4)
	v.SetDefault("geocode.bounds_convention", "bl_tr")
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.endpoint", "")
	v.SetDefault("here.app_id", "")
	v.SetDefault("here.app_code", "")
	v.SetDefault("here.endpoint", "")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOPROXY_SERVER_PORT → server.port
	v.SetEnvPrefix("GEOPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials keep their conventional names
	_ = v.BindEnv("google.api_key", "GEOPROXY_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")
	_ = v.BindEnv("here.app_id", "GEOPROXY_HERE_APP_ID", "HERE_API_APP_ID")
	_ = v.BindEnv("here.app_code", "GEOPROXY_HERE_APP_CODE", "HERE_API_APP_CODE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	if len(c.Geocode.Providers) == 0 {
		errs = append(errs, "geocode.providers must list at least one provider")
	}
	seen := make(map[string]bool)
	for _, p := range c.Geocode.Providers {
		if !knownProviders[p] {
			errs = append(errs, fmt.Sprintf("geocode.providers: unknown provider %q", p))
		}
		if seen[p] {
			errs = append(errs, fmt.Sprintf("geocode.providers: %q listed twice", p))
		}
		seen[p] = true
	}
	if c.Geocode.FetchTimeoutMS <= 0 {
		errs = append(errs, "geocode.fetch_timeout_ms must be positive")
	}
	if c.Geocode.Workers <= 0 {
		errs = append(errs, "geocode.workers must be positive")
	}
	switch c.Geocode.BoundsConvention {
	case "bl_tr", "provider":
	default:
		errs = append(errs, fmt.Sprintf("geocode.bounds_convention must be bl_tr or provider, got %q", c.Geocode.BoundsConvention))
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			errs = append(errs, "cache.addr is required when cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, "cache.ttl must be positive")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
