package webhook

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Config is the webhook delivery policy.
type Config struct {
	URL        string        `json:"url"`
	Enabled    bool          `json:"enabled"`
	RetryCount int           `json:"retry_count"`
	RetryDelay time.Duration `json:"retry_delay"`
	Timeout    time.Duration `json:"timeout"`
}

// Thresholds are the alert boundaries. A nil field disables that comparison.
type Thresholds struct {
	TempMinC    *float64 `json:"temp_min_c"`
	TempMaxC    *float64 `json:"temp_max_c"`
	HumidityMin *float64 `json:"humidity_min"`
	HumidityMax *float64 `json:"humidity_max"`
}

// Snapshot is a consistent copy of the full stored configuration.
type Snapshot struct {
	Config     Config
	Thresholds Thresholds
}

// Patch is a partial update. Nil delivery fields are left unchanged.
// Thresholds, when present, replace the stored block as a unit — the four
// boundaries are validated against each other, so they change together.
type Patch struct {
	URL        *string        `json:"url"`
	Enabled    *bool          `json:"enabled"`
	RetryCount *int           `json:"retry_count"`
	RetryDelay *time.Duration `json:"retry_delay"`
	Timeout    *time.Duration `json:"timeout"`
	Thresholds *Thresholds    `json:"thresholds"`
}

// ValidationError reports every offending field of a rejected update.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid webhook config: " + strings.Join(e.Issues, "; ")
}

// ConfigStore holds the current Config and Thresholds behind a mutex.
// Updates are all-or-nothing: a Patch that fails validation leaves the
// stored values untouched.
type ConfigStore struct {
	mu         sync.RWMutex
	cfg        Config
	thresholds Thresholds
}

// NewConfigStore creates a store seeded with cfg and thresholds.
// The seed itself must already be valid; use Update for anything user-supplied.
func NewConfigStore(cfg Config, thresholds Thresholds) *ConfigStore {
	return &ConfigStore{cfg: cfg, thresholds: thresholds}
}

// Get returns a consistent copy of the stored configuration. The threshold
// pointers in the copy are re-allocated so callers cannot reach the stored
// values.
func (s *ConfigStore) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Config: s.cfg, Thresholds: s.thresholds.clone()}
}

// Update validates p against the current values and applies it atomically.
// On failure the returned error is a *ValidationError naming every offending
// field and the stored configuration is unchanged.
func (s *ConfigStore) Update(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	if p.URL != nil {
		next.URL = *p.URL
	}
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.RetryCount != nil {
		next.RetryCount = *p.RetryCount
	}
	if p.RetryDelay != nil {
		next.RetryDelay = *p.RetryDelay
	}
	if p.Timeout != nil {
		next.Timeout = *p.Timeout
	}

	nextThresholds := s.thresholds
	if p.Thresholds != nil {
		nextThresholds = p.Thresholds.clone()
	}

	var issues []string
	if next.RetryCount < 1 || next.RetryCount > 10 {
		issues = append(issues, fmt.Sprintf("retry_count must be between 1 and 10, got %d", next.RetryCount))
	}
	if next.RetryDelay <= 0 {
		issues = append(issues, fmt.Sprintf("retry_delay must be positive, got %s", next.RetryDelay))
	}
	if next.Timeout < 5*time.Second || next.Timeout > 120*time.Second {
		issues = append(issues, fmt.Sprintf("timeout must be between 5s and 120s, got %s", next.Timeout))
	}
	if min, max := nextThresholds.TempMinC, nextThresholds.TempMaxC; min != nil && max != nil && *min >= *max {
		issues = append(issues, fmt.Sprintf("temp_min_c (%v) must be less than temp_max_c (%v)", *min, *max))
	}
	if min, max := nextThresholds.HumidityMin, nextThresholds.HumidityMax; min != nil && max != nil && *min >= *max {
		issues = append(issues, fmt.Sprintf("humidity_min (%v) must be less than humidity_max (%v)", *min, *max))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}

	s.cfg = next
	s.thresholds = nextThresholds
	slog.Info("webhook: configuration updated",
		"url", MaskURL(next.URL),
		"enabled", next.Enabled,
		"retry_count", next.RetryCount,
	)
	return nil
}

// Enable turns delivery on.
func (s *ConfigStore) Enable() { s.setEnabled(true) }

// Disable turns delivery off. A disabled dispatcher reports success without
// making HTTP calls.
func (s *ConfigStore) Disable() { s.setEnabled(false) }

func (s *ConfigStore) setEnabled(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Enabled = v
	slog.Info("webhook: delivery toggled", "enabled", v)
}

func (t Thresholds) clone() Thresholds {
	return Thresholds{
		TempMinC:    clonePtr(t.TempMinC),
		TempMaxC:    clonePtr(t.TempMaxC),
		HumidityMin: clonePtr(t.HumidityMin),
		HumidityMax: clonePtr(t.HumidityMax),
	}
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// maskPrefixLen is how many leading URL bytes survive masking in logs.
// Enough to identify the provider host, never enough to leak the token path.
const maskPrefixLen = 24

// MaskURL returns a log-safe form of a webhook URL: a fixed-length prefix
// followed by an ellipsis.
func MaskURL(url string) string {
	if url == "" {
		return "<unset>"
	}
	if len(url) <= maskPrefixLen {
		return url
	}
	return url[:maskPrefixLen] + "…"
}
