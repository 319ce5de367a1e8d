package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// loadFromString writes yaml to a temp file and loads it.
func loadFromString(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := tryLoad(t, yaml)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func tryLoad(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}

func TestLoad_Valid(t *testing.T) {
	yaml := `
sampling:
  interval: 30s
  temperature_samples: 7
  cpu_temp_factor: 0.65
  humidity_offset: -1.5
webhook:
  url_env: ROOMSENSE_WEBHOOK_URL
  enabled: true
  retry_count: 5
  retry_delay: 2s
  timeout: 15s
alerts:
  temp_min_c: 15
  temp_max_c: 32
  humidity_min: 20
  humidity_max: 70
status:
  enabled: true
  interval: 30m
  on_startup: true
server:
  http_port: 9090
`
	cfg := loadFromString(t, yaml)

	if cfg.Sampling.Interval != 30*time.Second {
		t.Errorf("sampling.interval: got %v", cfg.Sampling.Interval)
	}
	if cfg.Sampling.TemperatureSamples != 7 {
		t.Errorf("temperature_samples: got %d", cfg.Sampling.TemperatureSamples)
	}
	if cfg.Sampling.CPUTempFactor != 0.65 {
		t.Errorf("cpu_temp_factor: got %v", cfg.Sampling.CPUTempFactor)
	}
	if cfg.Webhook.RetryCount != 5 {
		t.Errorf("retry_count: got %d", cfg.Webhook.RetryCount)
	}
	if cfg.Alerts.TempMaxC == nil || *cfg.Alerts.TempMaxC != 32 {
		t.Errorf("temp_max_c: got %v", cfg.Alerts.TempMaxC)
	}
	if cfg.Alerts.HumidityMin == nil || *cfg.Alerts.HumidityMin != 20 {
		t.Errorf("humidity_min: got %v", cfg.Alerts.HumidityMin)
	}
	if !cfg.Status.OnStartup {
		t.Error("status.on_startup: got false")
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port: got %d", cfg.Server.HTTPPort)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, `
webhook:
  url_env: ROOMSENSE_WEBHOOK_URL
`)

	if cfg.Sampling.Interval != DefaultSamplingInterval {
		t.Errorf("sampling.interval default: got %v", cfg.Sampling.Interval)
	}
	if cfg.Sampling.TemperatureSamples != DefaultTemperatureSamples {
		t.Errorf("temperature_samples default: got %d", cfg.Sampling.TemperatureSamples)
	}
	if cfg.Sampling.CPUTempFactor != DefaultCPUTempFactor {
		t.Errorf("cpu_temp_factor default: got %v", cfg.Sampling.CPUTempFactor)
	}
	if cfg.Webhook.RetryCount != DefaultRetryCount {
		t.Errorf("retry_count default: got %d", cfg.Webhook.RetryCount)
	}
	if cfg.Webhook.Timeout != DefaultTimeout {
		t.Errorf("timeout default: got %v", cfg.Webhook.Timeout)
	}
	if cfg.Alerts.TempMinC != nil {
		t.Errorf("temp_min_c default: got %v, want nil (disabled)", *cfg.Alerts.TempMinC)
	}
	if cfg.Status.Enabled {
		t.Error("status.enabled default: got true")
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port default: got %d", cfg.Server.HTTPPort)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := tryLoad(t, "sampling: [not a mapping"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			"interval below 1s",
			"sampling:\n  interval: 500ms\n",
			"sampling.interval",
		},
		{
			"retry count out of range",
			"webhook:\n  retry_count: 11\n",
			"retry_count",
		},
		{
			"timeout out of range",
			"webhook:\n  timeout: 3s\n",
			"timeout",
		},
		{
			"inverted temperature thresholds",
			"alerts:\n  temp_min_c: 30\n  temp_max_c: 20\n",
			"temp_min_c",
		},
		{
			"inverted humidity thresholds",
			"alerts:\n  humidity_min: 80\n  humidity_max: 40\n",
			"humidity_min",
		},
		{
			"status interval below minimum",
			"status:\n  enabled: true\n  interval: 10s\n",
			"status.interval",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryLoad(t, tt.yaml)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q missing %q", err, tt.wantSub)
			}
		})
	}
}

func TestWebhookURL_ResolvedFromEnv(t *testing.T) {
	cfg := loadFromString(t, "webhook:\n  url_env: ROOMSENSE_TEST_WEBHOOK_URL\n")

	t.Setenv("ROOMSENSE_TEST_WEBHOOK_URL", "https://hooks.example.com/T123")
	if got := cfg.Webhook.URL(); got != "https://hooks.example.com/T123" {
		t.Errorf("URL: got %q", got)
	}
}

func TestWebhookURL_EmptyWhenUnset(t *testing.T) {
	w := WebhookConfig{}
	if got := w.URL(); got != "" {
		t.Errorf("URL without url_env: got %q", got)
	}
}
