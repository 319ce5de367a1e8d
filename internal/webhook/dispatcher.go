package webhook

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// backoffCap bounds any single inter-attempt wait, matching the delivery
// policy's upper range: a misconfigured delay can never stall a worker for
// more than five minutes per attempt.
const backoffCap = 5 * time.Minute

// Doer is the subset of *http.Client the dispatcher needs. Injectable so
// tests can count requests and fail on demand.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher delivers Messages to the configured webhook sink. Sends are
// independent — the only shared state is a config snapshot read at the start
// of each Send — so it is safe for concurrent use by the alert evaluator and
// the status reporter.
type Dispatcher struct {
	store  *ConfigStore
	client Doer
	now    func() time.Time

	// sleep waits for d or until ctx is cancelled. Injectable so retry tests
	// run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a Dispatcher reading delivery policy from store.
func NewDispatcher(store *ConfigStore) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{},
		now:    time.Now,
		sleep:  ctxSleep,
	}
}

// Send delivers msg with bounded retries. It returns nil immediately when
// delivery is disabled or no URL is configured — zero HTTP calls are made.
// Exhausted retries are logged and reported as an error value; Send never
// panics and a failure never propagates beyond the returned error.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	snap := d.store.Get()
	cfg := snap.Config
	if !cfg.Enabled || cfg.URL == "" {
		slog.Debug("webhook: not configured or disabled, skipping send", "kind", msg.Kind)
		return nil
	}

	body, err := msg.payload()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	bo := Backoff{Base: cfg.RetryDelay, Multiplier: 2, Cap: backoffCap}

	var lastErr error
	for attempt := 1; attempt <= cfg.RetryCount; attempt++ {
		if wait := bo.Delay(attempt); wait > 0 {
			if err := d.sleep(ctx, wait); err != nil {
				return fmt.Errorf("delivery cancelled: %w", err)
			}
		}

		if err := d.post(ctx, cfg.URL, body, cfg.Timeout); err != nil {
			lastErr = err
			slog.Warn("webhook: delivery attempt failed",
				"url", MaskURL(cfg.URL),
				"kind", msg.Kind,
				"attempt", attempt,
				"max_attempts", cfg.RetryCount,
				"err", err,
			)
			continue
		}

		slog.Info("webhook: delivered",
			"url", MaskURL(cfg.URL),
			"kind", msg.Kind,
			"attempt", attempt,
		)
		return nil
	}

	slog.Error("webhook: delivery failed, retries exhausted",
		"url", MaskURL(cfg.URL),
		"kind", msg.Kind,
		"attempts", cfg.RetryCount,
		"err", lastErr,
	)
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", cfg.RetryCount, lastErr)
}

// SendTest delivers a test notification through the normal path, so it
// exercises the real policy and sink.
func (d *Dispatcher) SendTest(ctx context.Context) error {
	now := d.now()
	return d.Send(ctx, Message{
		Kind:      KindTest,
		Title:     "Webhook Test",
		Color:     ColorGood,
		Timestamp: now,
		Fields: []Field{
			{Label: "Timestamp", Value: now.Format(time.DateTime)},
		},
	})
}

// SystemEvent delivers a lifecycle notification (startup, shutdown, error).
func (d *Dispatcher) SystemEvent(ctx context.Context, event, detail, severity string) error {
	color := ColorGood
	switch severity {
	case "warning":
		color = ColorWarning
	case "error":
		color = ColorDanger
	}
	now := d.now()
	return d.Send(ctx, Message{
		Kind:      KindSystemEvent,
		Title:     fmt.Sprintf("System Event: %s — %s", event, detail),
		Color:     color,
		Timestamp: now,
		Fields: []Field{
			{Label: "Timestamp", Value: now.Format(time.DateTime)},
		},
	})
}

// post performs one delivery attempt. A timeout or non-2xx status is a
// failed attempt.
func (d *Dispatcher) post(ctx context.Context, url string, body []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
