package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomsense/roomsense/internal/alerts"
	"github.com/roomsense/roomsense/internal/config"
	"github.com/roomsense/roomsense/internal/metrics"
	"github.com/roomsense/roomsense/internal/sampler"
	"github.com/roomsense/roomsense/internal/sensor"
	"github.com/roomsense/roomsense/internal/status"
	"github.com/roomsense/roomsense/internal/store"
	"github.com/roomsense/roomsense/internal/webhook"
	"github.com/roomsense/roomsense/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("roomsense starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"sampling_interval", cfg.Sampling.Interval,
		"webhook_enabled", cfg.Webhook.Enabled,
		"status_enabled", cfg.Status.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hw := sensor.New(cfg.Sampling.UseMockSensors)
	slog.Info("sensor ready", "hardware", hw.Available() && !cfg.Sampling.UseMockSensors)

	readings := store.New()
	whStore := webhook.NewConfigStore(webhookConfig(cfg), thresholds(cfg))
	dispatcher := webhook.NewDispatcher(whStore)

	engine := sampler.New(hw, readings, cfg.Sampling)
	evaluator := alerts.New(whStore, dispatcher)
	hub := ws.New(readings, cfg.Server.BroadcastInterval)

	go engine.Run(ctx)
	go evaluator.Run(ctx, engine.Readings())
	go hub.Run(ctx)

	if cfg.Status.Enabled {
		go status.New(readings, dispatcher, cfg.Status).Run(ctx)
	}

	// Hot-reload applies webhook and threshold changes through the config
	// store, so the same all-or-nothing validation guards file edits.
	// Sampling settings require a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) error {
			return applyWebhookConfig(whStore, updated)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Minimal mount point for the core's own outward surfaces. The REST API
	// layer mounts the remaining endpoints and wraps everything with auth.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.NewHandler(readings))
	mux.Handle("/ws", hub)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("http: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http: server stopped", "err", err)
		}
	}()

	go func() {
		if err := dispatcher.SystemEvent(ctx, "startup", "roomsense monitoring started", "info"); err != nil {
			slog.Warn("startup notification not delivered", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("roomsense shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http: shutdown", "err", err)
	}
	// Best-effort shutdown notice; a dead sink must not delay exit.
	if err := dispatcher.SystemEvent(shutdownCtx, "shutdown", "roomsense monitoring stopped", "info"); err != nil {
		slog.Debug("shutdown notification not delivered", "err", err)
	}
}

func webhookConfig(cfg *config.Config) webhook.Config {
	return webhook.Config{
		URL:        cfg.Webhook.URL(),
		Enabled:    cfg.Webhook.Enabled,
		RetryCount: cfg.Webhook.RetryCount,
		RetryDelay: cfg.Webhook.RetryDelay,
		Timeout:    cfg.Webhook.Timeout,
	}
}

func thresholds(cfg *config.Config) webhook.Thresholds {
	return webhook.Thresholds{
		TempMinC:    cfg.Alerts.TempMinC,
		TempMaxC:    cfg.Alerts.TempMaxC,
		HumidityMin: cfg.Alerts.HumidityMin,
		HumidityMax: cfg.Alerts.HumidityMax,
	}
}

func applyWebhookConfig(s *webhook.ConfigStore, cfg *config.Config) error {
	wc := webhookConfig(cfg)
	th := thresholds(cfg)
	return s.Update(webhook.Patch{
		URL:        &wc.URL,
		Enabled:    &wc.Enabled,
		RetryCount: &wc.RetryCount,
		RetryDelay: &wc.RetryDelay,
		Timeout:    &wc.Timeout,
		Thresholds: &th,
	})
}
