package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSamplingInterval   = 60 * time.Second
	DefaultTemperatureSamples = 5
	DefaultCPUTempFactor      = 0.7
	DefaultRetryCount         = 3
	DefaultRetryDelay         = 5 * time.Second
	DefaultTimeout            = 10 * time.Second
	DefaultStatusInterval     = time.Hour
	DefaultHTTPPort           = 8080
	DefaultBroadcastInterval  = 5 * time.Second
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Status   StatusConfig   `yaml:"status"`
	Server   ServerConfig   `yaml:"server"`
}

// SamplingConfig holds sensor loop settings.
type SamplingConfig struct {
	// Interval is the time between sampling cycles. Clamped to >= 1s.
	Interval time.Duration `yaml:"interval"`

	// TemperatureSamples is the raw sub-reading batch size per cycle.
	TemperatureSamples int `yaml:"temperature_samples"`

	// CPUTempFactor scales the CPU heat-soak correction:
	// compensated = raw - (cpu - raw) * factor.
	CPUTempFactor float64 `yaml:"cpu_temp_factor"`

	// HumidityOffset is a fixed calibration offset added to the trimmed
	// humidity average, in percentage points.
	HumidityOffset float64 `yaml:"humidity_offset"`

	// UseMockSensors forces the mock sensor even when hardware is present.
	UseMockSensors bool `yaml:"use_mock_sensors"`
}

// WebhookConfig holds outbound notification delivery settings.
type WebhookConfig struct {
	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`

	Enabled    bool          `yaml:"enabled"`
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// URL returns the webhook URL resolved from the environment.
// Returns empty string if URLEnv is unset or the variable is not found.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// AlertsConfig holds the environmental thresholds. A nil field disables that
// comparison entirely.
type AlertsConfig struct {
	TempMinC    *float64 `yaml:"temp_min_c"`
	TempMaxC    *float64 `yaml:"temp_max_c"`
	HumidityMin *float64 `yaml:"humidity_min"`
	HumidityMax *float64 `yaml:"humidity_max"`
}

// StatusConfig holds periodic status report settings.
type StatusConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval between status reports. Clamped to >= 60s.
	Interval time.Duration `yaml:"interval"`

	// OnStartup sends one report immediately instead of waiting a full interval.
	OnStartup bool `yaml:"on_startup"`
}

// ServerConfig holds settings consumed by the API layer that mounts the core.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval controls how often the WebSocket hub pushes the
	// latest reading to connected clients.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval:           DefaultSamplingInterval,
			TemperatureSamples: DefaultTemperatureSamples,
			CPUTempFactor:      DefaultCPUTempFactor,
		},
		Webhook: WebhookConfig{
			Enabled:    true,
			RetryCount: DefaultRetryCount,
			RetryDelay: DefaultRetryDelay,
			Timeout:    DefaultTimeout,
		},
		Status: StatusConfig{
			Interval: DefaultStatusInterval,
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// validate checks required fields and structural constraints. Webhook and
// threshold values get a second, stricter validation when applied to the
// runtime store; this pass rejects files that could never be applied.
func validate(cfg *Config) error {
	if cfg.Sampling.Interval < time.Second {
		return fmt.Errorf("sampling.interval must be at least 1s, got %s", cfg.Sampling.Interval)
	}
	if cfg.Sampling.TemperatureSamples < 1 {
		return fmt.Errorf("sampling.temperature_samples must be positive, got %d", cfg.Sampling.TemperatureSamples)
	}
	if cfg.Webhook.RetryCount < 1 || cfg.Webhook.RetryCount > 10 {
		return fmt.Errorf("webhook.retry_count must be between 1 and 10, got %d", cfg.Webhook.RetryCount)
	}
	if cfg.Webhook.RetryDelay <= 0 {
		return fmt.Errorf("webhook.retry_delay must be positive, got %s", cfg.Webhook.RetryDelay)
	}
	if cfg.Webhook.Timeout < 5*time.Second || cfg.Webhook.Timeout > 120*time.Second {
		return fmt.Errorf("webhook.timeout must be between 5s and 120s, got %s", cfg.Webhook.Timeout)
	}
	if min, max := cfg.Alerts.TempMinC, cfg.Alerts.TempMaxC; min != nil && max != nil && *min >= *max {
		return fmt.Errorf("alerts.temp_min_c (%v) must be less than alerts.temp_max_c (%v)", *min, *max)
	}
	if min, max := cfg.Alerts.HumidityMin, cfg.Alerts.HumidityMax; min != nil && max != nil && *min >= *max {
		return fmt.Errorf("alerts.humidity_min (%v) must be less than alerts.humidity_max (%v)", *min, *max)
	}
	if cfg.Status.Enabled && cfg.Status.Interval < time.Minute {
		return fmt.Errorf("status.interval must be at least 60s, got %s", cfg.Status.Interval)
	}
	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be a valid port, got %d", cfg.Server.HTTPPort)
	}
	return nil
}
