package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roomsense/roomsense/internal/store"
	"github.com/roomsense/roomsense/internal/webhook"
)

// Kind identifies a threshold crossing. TempHigh/TempLow are mutually
// exclusive by construction; a temperature kind and a humidity kind can fire
// on the same reading.
type Kind string

const (
	TempHigh     Kind = "temp_high"
	TempLow      Kind = "temp_low"
	HumidityHigh Kind = "humidity_high"
	HumidityLow  Kind = "humidity_low"
)

// cooldown is the minimum gap between two deliveries of the same Kind.
const cooldown = 5 * time.Minute

// Notifier delivers a formatted notification. Satisfied by *webhook.Dispatcher.
type Notifier interface {
	Send(ctx context.Context, msg webhook.Message) error
}

// Evaluator consumes each published Reading exactly once, compares it against
// a consistent snapshot of the thresholds and dispatches alerts. The cooldown
// map is owned solely by the Evaluator and mutated under its lock; entries
// persist for the process lifetime.
type Evaluator struct {
	config   *webhook.ConfigStore
	notifier Notifier

	mu       sync.Mutex
	lastSent map[Kind]time.Time
	now      func() time.Time // injectable for deterministic tests
}

// New creates an Evaluator reading thresholds from cfg and delivering
// through n.
func New(cfg *webhook.ConfigStore, n Notifier) *Evaluator {
	return &Evaluator{
		config:   cfg,
		notifier: n,
		lastSent: make(map[Kind]time.Time),
		now:      time.Now,
	}
}

// Run evaluates every reading from readings, in publication order, until ctx
// is cancelled. Delivery runs on its own goroutine per alert, so a slow or
// retrying send never delays evaluation of subsequent readings.
func (e *Evaluator) Run(ctx context.Context, readings <-chan store.Reading) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-readings:
			if !ok {
				return
			}
			e.Evaluate(ctx, r)
		}
	}
}

// Evaluate checks one reading. Zero, one or two kinds may fire; kinds inside
// their cooldown window are suppressed silently.
func (e *Evaluator) Evaluate(ctx context.Context, r store.Reading) {
	thresholds := e.config.Get().Thresholds

	for _, v := range violations(thresholds, r) {
		if !e.markSent(v.kind) {
			continue
		}
		slog.Warn("alerts: threshold crossed",
			"kind", v.kind,
			"value", v.value,
			"threshold", v.threshold,
		)
		msg := v.message(r)
		go func() {
			if err := e.notifier.Send(ctx, msg); err != nil {
				slog.Error("alerts: delivery failed", "kind", msg.Kind, "err", err)
			}
		}()
	}
}

// markSent records a dispatch for kind. It returns false when the previous
// dispatch is still inside the cooldown window.
func (e *Evaluator) markSent(k Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if last, ok := e.lastSent[k]; ok && now.Sub(last) < cooldown {
		return false
	}
	e.lastSent[k] = now
	return true
}

// violation is one threshold crossing found in a reading.
type violation struct {
	kind      Kind
	value     float64
	threshold float64
}

// violations returns the crossings present in r, temperature first.
func violations(t webhook.Thresholds, r store.Reading) []violation {
	var out []violation
	if t.TempMaxC != nil && r.TemperatureC > *t.TempMaxC {
		out = append(out, violation{TempHigh, r.TemperatureC, *t.TempMaxC})
	}
	if t.TempMinC != nil && r.TemperatureC < *t.TempMinC {
		out = append(out, violation{TempLow, r.TemperatureC, *t.TempMinC})
	}
	if t.HumidityMax != nil && r.HumidityPct > *t.HumidityMax {
		out = append(out, violation{HumidityHigh, r.HumidityPct, *t.HumidityMax})
	}
	if t.HumidityMin != nil && r.HumidityPct < *t.HumidityMin {
		out = append(out, violation{HumidityLow, r.HumidityPct, *t.HumidityMin})
	}
	return out
}

// message builds the notification for this violation.
func (v violation) message(r store.Reading) webhook.Message {
	var title, color, valueField, label string
	switch v.kind {
	case TempHigh:
		title, color = "Temperature Alert: HIGH", webhook.ColorDanger
		label = "Current Temperature"
		valueField = tempField(v.value)
	case TempLow:
		title, color = "Temperature Alert: LOW", webhook.ColorWarning
		label = "Current Temperature"
		valueField = tempField(v.value)
	case HumidityHigh:
		title, color = "Humidity Alert: HIGH", webhook.ColorWarning
		label = "Current Humidity"
		valueField = humidityField(v.value)
	case HumidityLow:
		title, color = "Humidity Alert: LOW", webhook.ColorWarning
		label = "Current Humidity"
		valueField = humidityField(v.value)
	}

	threshold := humidityField(v.threshold)
	if v.kind == TempHigh || v.kind == TempLow {
		threshold = tempField(v.threshold)
	}

	return webhook.Message{
		Kind:      webhook.KindAlert,
		Title:     title,
		Color:     color,
		Timestamp: r.Timestamp,
		Fields: []webhook.Field{
			{Label: label, Value: valueField, Short: true},
			{Label: "Threshold", Value: threshold, Short: true},
			{Label: "Timestamp", Value: r.Timestamp.Format(time.DateTime)},
		},
	}
}

func tempField(c float64) string {
	return fmt.Sprintf("%.1f°C (%.1f°F)", c, c*9/5+32)
}

func humidityField(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}
