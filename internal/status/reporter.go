package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roomsense/roomsense/internal/config"
	"github.com/roomsense/roomsense/internal/store"
	"github.com/roomsense/roomsense/internal/webhook"
)

// minInterval is the lowest allowed reporting interval.
const minInterval = time.Minute

// Notifier delivers a formatted notification. Satisfied by *webhook.Dispatcher.
type Notifier interface {
	Send(ctx context.Context, msg webhook.Message) error
}

// Reporter emits a status message with the latest reading on a fixed
// schedule. A failed send is dropped and retried at the next tick — there is
// no backlog.
type Reporter struct {
	store     *store.Store
	notifier  Notifier
	interval  time.Duration
	onStartup bool
}

// New creates a Reporter. The interval is clamped to at least one minute.
func New(st *store.Store, n Notifier, cfg config.StatusConfig) *Reporter {
	interval := cfg.Interval
	if interval < minInterval {
		interval = minInterval
	}
	return &Reporter{
		store:     st,
		notifier:  n,
		interval:  interval,
		onStartup: cfg.OnStartup,
	}
}

// Run sends reports until ctx is cancelled. With OnStartup set, one report
// is sent immediately instead of waiting for the first full interval.
func (r *Reporter) Run(ctx context.Context) {
	slog.Info("status: reporter starting", "interval", r.interval, "on_startup", r.onStartup)

	if r.onStartup {
		r.report(ctx)
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("status: reporter stopped")
			return
		case <-t.C:
			r.report(ctx)
		}
	}
}

// report sends one status message. It skips silently when no reading has
// been published yet.
func (r *Reporter) report(ctx context.Context) {
	reading, ok := r.store.Get()
	if !ok {
		slog.Debug("status: no reading published yet, skipping report")
		return
	}

	if err := r.notifier.Send(ctx, buildMessage(reading)); err != nil {
		// Dropped — the next tick reports fresh data anyway.
		slog.Warn("status: report dropped", "err", err)
	}
}

func buildMessage(r store.Reading) webhook.Message {
	fields := []webhook.Field{
		{Label: "Temperature", Value: fmt.Sprintf("%.1f°C (%.1f°F)", r.TemperatureC, r.TemperatureF), Short: true},
		{Label: "Humidity", Value: fmt.Sprintf("%.1f%%", r.HumidityPct), Short: true},
	}
	if r.CPUTempC != nil {
		fields = append(fields, webhook.Field{
			Label: "CPU Temperature",
			Value: fmt.Sprintf("%.1f°C", *r.CPUTempC),
			Short: true,
		})
	}
	fields = append(fields, webhook.Field{
		Label: "Last Updated",
		Value: r.Timestamp.Format(time.DateTime),
	})

	return webhook.Message{
		Kind:      webhook.KindStatus,
		Title:     "Server Room Status Update",
		Color:     webhook.ColorGood,
		Timestamp: r.Timestamp,
		Fields:    fields,
	}
}
