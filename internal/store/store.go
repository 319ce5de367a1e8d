package store

import (
	"sync"
	"time"
)

// Reading is one compensated temperature/humidity observation. It is an
// immutable value: the sampler builds it once per cycle and replaces the
// published snapshot wholesale, never mutating it in place.
type Reading struct {
	TemperatureC float64    `json:"temperature_c"`
	TemperatureF float64    `json:"temperature_f"`
	HumidityPct  float64    `json:"humidity"`
	CPUTempC     *float64   `json:"cpu_temperature_c,omitempty"` // nil when compensation is degraded
	Timestamp    time.Time  `json:"timestamp"`
}

// Store is a thread-safe latest-value cache for the current Reading.
// The write lock is held only for the snapshot swap — never across sensor
// I/O — so any number of concurrent readers stay unblocked while a sampling
// cycle or a retrying webhook delivery is in flight.
type Store struct {
	mu      sync.RWMutex
	current Reading
	set     bool
	now     func() time.Time // injectable for deterministic tests
	updated time.Time
}

// New returns an empty Store. Get reports ok=false until the first Set.
func New() *Store {
	return &Store{now: time.Now}
}

// Set atomically replaces the published snapshot.
func (s *Store) Set(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
	s.set = true
	s.updated = s.now()
}

// Get returns the latest Reading and whether one has been published yet.
// Concurrent readers always observe a fully-formed snapshot.
func (s *Store) Get() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.set
}

// UpdatedAt returns when the snapshot was last replaced. Zero before the
// first Set. Backs the health endpoint's staleness check.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
