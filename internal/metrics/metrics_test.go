package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roomsense/roomsense/internal/store"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func newHandler(st *store.Store) *Handler {
	h := NewHandler(st)
	h.now = func() time.Time { return baseTime.Add(30 * time.Second) }
	return h
}

func serve(t *testing.T, h *Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status: got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestServeHTTP_ExposesReading(t *testing.T) {
	st := store.New()
	st.Set(store.Reading{
		TemperatureC: 21.5,
		TemperatureF: 70.7,
		HumidityPct:  48,
		CPUTempC:     f64(52.25),
		Timestamp:    baseTime,
	})

	body := serve(t, newHandler(st))

	wantLines := []string{
		"roomsense_temperature_celsius 21.5",
		"roomsense_temperature_fahrenheit 70.7",
		"roomsense_humidity_percent 48",
		"roomsense_cpu_temperature_celsius 52.25",
		"roomsense_reading_age_seconds 30",
	}
	for _, want := range wantLines {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(body, "# TYPE roomsense_temperature_celsius gauge") {
		t.Errorf("missing TYPE line:\n%s", body)
	}
}

func TestServeHTTP_DegradedOmitsCPUTemp(t *testing.T) {
	st := store.New()
	st.Set(store.Reading{TemperatureC: 20, TemperatureF: 68, HumidityPct: 50, Timestamp: baseTime})

	body := serve(t, newHandler(st))
	if strings.Contains(body, "roomsense_cpu_temperature_celsius") {
		t.Errorf("cpu metric present despite degraded reading:\n%s", body)
	}
}

func TestServeHTTP_EmptyStore(t *testing.T) {
	body := serve(t, newHandler(store.New()))
	if strings.Contains(body, "roomsense_") {
		t.Errorf("expected empty exposition before first reading:\n%s", body)
	}
}

// failWriter refuses every write, standing in for a client that hung up.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWrite_ReportsEncodeFailure(t *testing.T) {
	st := store.New()
	st.Set(store.Reading{TemperatureC: 20, TemperatureF: 68, HumidityPct: 50, Timestamp: baseTime})

	if err := newHandler(st).write(failWriter{}); err == nil {
		t.Fatal("write to a broken sink: expected error")
	}
}

func TestServeHTTP_ContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(store.New()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}
}
