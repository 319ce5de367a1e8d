package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/roomsense/roomsense/internal/config"
	"github.com/roomsense/roomsense/internal/sensor"
	"github.com/roomsense/roomsense/internal/store"
)

// humiditySamples is the fixed batch size for humidity sub-readings.
const humiditySamples = 3

// Engine is the sampling loop. It owns the sensor for the lifetime of the
// process: cycles never overlap and all hardware I/O happens on the loop
// goroutine. The only suspension point is the inter-cycle wait.
type Engine struct {
	sensor         sensor.Sensor
	store          *store.Store
	interval       time.Duration
	samples        int
	factor         float64
	humidityOffset float64

	out      chan store.Reading
	degraded bool // true while CPU temperature is unavailable
	now      func() time.Time
}

// New creates an Engine publishing into st. The sampling interval is clamped
// to at least one second.
func New(s sensor.Sensor, st *store.Store, cfg config.SamplingConfig) *Engine {
	interval := cfg.Interval
	if interval < time.Second {
		interval = time.Second
	}
	samples := cfg.TemperatureSamples
	if samples < 1 {
		samples = config.DefaultTemperatureSamples
	}
	return &Engine{
		sensor:         s,
		store:          st,
		interval:       interval,
		samples:        samples,
		factor:         cfg.CPUTempFactor,
		humidityOffset: cfg.HumidityOffset,
		out:            make(chan store.Reading, 1),
		now:            time.Now,
	}
}

// Readings returns the channel of published readings. Every successful cycle
// produces exactly one value, in publication order.
func (e *Engine) Readings() <-chan store.Reading {
	return e.out
}

// Run executes sampling cycles until ctx is cancelled. The first cycle runs
// immediately so the store has data before the first full interval elapses.
// A hardware fault skips the cycle and retains the previous reading; the
// loop itself never terminates on a fault.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("sampler: starting",
		"interval", e.interval,
		"temperature_samples", e.samples,
		"cpu_temp_factor", e.factor,
	)

	e.cycle(ctx)

	t := time.NewTicker(e.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sampler: stopped")
			return
		case <-t.C:
			e.cycle(ctx)
		}
	}
}

// cycle performs one sampling pass and publishes the result.
func (e *Engine) cycle(ctx context.Context) {
	reading, err := e.sample()
	if err != nil {
		slog.Warn("sampler: cycle skipped, keeping previous reading", "err", err)
		return
	}

	e.store.Set(reading)

	select {
	case e.out <- reading:
	case <-ctx.Done():
		return
	}

	// Fire-and-forget LED side effect. The loop never waits on the matrix.
	go e.display(reading)

	slog.Info("sampler: reading published",
		"temperature_c", reading.TemperatureC,
		"humidity", reading.HumidityPct,
		"cpu_temp_c", reading.CPUTempC,
	)
}

// sample reads the hardware and builds one compensated Reading.
func (e *Engine) sample() (store.Reading, error) {
	cpu, cpuErr := e.sensor.CPUTemperature()
	e.noteCompensation(cpuErr)

	raws := make([]float64, 0, e.samples)
	for i := 0; i < e.samples; i++ {
		v, err := e.sensor.Temperature()
		if err != nil {
			return store.Reading{}, fmt.Errorf("read temperature: %w", err)
		}
		raws = append(raws, v)
	}
	raw := trimmedMean(raws)

	comp := raw
	var cpuPtr *float64
	if cpuErr == nil {
		comp = compensate(raw, cpu, e.factor)
		c := cpu
		cpuPtr = &c
	}

	hums := make([]float64, 0, humiditySamples)
	for i := 0; i < humiditySamples; i++ {
		v, err := e.sensor.Humidity()
		if err != nil {
			return store.Reading{}, fmt.Errorf("read humidity: %w", err)
		}
		hums = append(hums, v)
	}
	humidity := trimmedMean(hums) + e.humidityOffset

	return store.Reading{
		TemperatureC: comp,
		TemperatureF: celsiusToFahrenheit(comp),
		HumidityPct:  humidity,
		CPUTempC:     cpuPtr,
		Timestamp:    e.now(),
	}, nil
}

// noteCompensation logs degraded-mode transitions exactly once per change,
// not on every cycle.
func (e *Engine) noteCompensation(cpuErr error) {
	switch {
	case cpuErr != nil && !e.degraded:
		e.degraded = true
		slog.Warn("sampler: cpu temperature unavailable, using raw readings", "err", cpuErr)
	case cpuErr == nil && e.degraded:
		e.degraded = false
		slog.Info("sampler: cpu temperature restored, compensation active")
	}
}

func (e *Engine) display(r store.Reading) {
	msg := fmt.Sprintf("Temp: %.1fF", r.TemperatureF)
	if err := e.sensor.Display(msg); err != nil {
		slog.Debug("sampler: display failed", "err", err)
	}
}

// compensate corrects a raw ambient reading for heat soaked in from the CPU.
// Canonical formula: compensated = raw − (cpu − raw) × factor. The factor
// approximates how much of the CPU/ambient gradient reaches the sensor and
// should be calibrated per enclosure.
func compensate(raw, cpu, factor float64) float64 {
	return raw - ((cpu - raw) * factor)
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// trimmedMean averages vals after discarding the single highest and single
// lowest value. Batches smaller than three are averaged as-is.
func trimmedMean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	vs := vals
	if len(vals) >= 3 {
		vs = make([]float64, len(vals))
		copy(vs, vals)
		sort.Float64s(vs)
		vs = vs[1 : len(vs)-1]
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
