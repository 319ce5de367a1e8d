package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/roomsense/roomsense/internal/store"
)

// Handler serves the current reading in Prometheus text format. Before the
// first reading is published it serves an empty (but valid) exposition.
type Handler struct {
	store *store.Store
	now   func() time.Time // injectable for deterministic tests
}

// NewHandler creates a Handler reading from st.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	if err := h.write(w); err != nil {
		slog.Warn("metrics: writing exposition failed", "err", err)
	}
}

// write encodes the metric families for the latest reading.
func (h *Handler) write(w io.Writer) error {
	reading, ok := h.store.Get()
	if !ok {
		return nil
	}

	families := []*dto.MetricFamily{
		gauge("roomsense_temperature_celsius",
			"Compensated ambient temperature in degrees Celsius.",
			reading.TemperatureC),
		gauge("roomsense_temperature_fahrenheit",
			"Compensated ambient temperature in degrees Fahrenheit.",
			reading.TemperatureF),
		gauge("roomsense_humidity_percent",
			"Relative humidity percentage after calibration offset.",
			reading.HumidityPct),
	}
	if reading.CPUTempC != nil {
		families = append(families, gauge("roomsense_cpu_temperature_celsius",
			"SoC temperature used for heat compensation.",
			*reading.CPUTempC))
	}
	families = append(families, gauge("roomsense_reading_age_seconds",
		"Seconds since the last successful sampling cycle.",
		h.now().Sub(reading.Timestamp).Seconds()))

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(value)}},
		},
	}
}
