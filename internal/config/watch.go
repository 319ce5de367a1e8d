package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it changes and hands the parsed
// result to apply. It watches the parent directory rather than the file
// itself, so atomic saves (write to a temp file, rename over the target)
// keep being picked up without chasing the replaced inode.
//
// A file that fails to parse or validate, or an apply that rejects the new
// values, leaves the running settings untouched; the failure is logged and
// watching continues. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, apply func(*Config) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: start watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}

	target := filepath.Base(path)
	slog.Info("config: hot reload active", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reload(path, apply)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watch error", "err", err)
		}
	}
}

// reload parses path and applies the result. Any failure keeps the previous
// settings active.
func reload(path string, apply func(*Config) error) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload skipped, previous settings stay active",
			"path", path, "err", err)
		return
	}
	if err := apply(cfg); err != nil {
		slog.Error("config: reloaded settings rejected, previous settings stay active",
			"path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path)
}
