package sensor

import (
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Mock generates plausible readings for machines without a Sense HAT.
// Temperature follows a 24-hour cycle around a base value, humidity a slower
// two-hour cycle clamped to a realistic band, and the CPU runs warm with
// jitter — close to the behaviour of real hardware under load.
type Mock struct {
	baseTemp     float64
	baseHumidity float64
	cpuTemp      float64
	start        time.Time
	rand         *rand.Rand
	now          func() time.Time
}

// NewMock returns a Mock seeded from the current time.
func NewMock() *Mock {
	return &Mock{
		baseTemp:     22.0,
		baseHumidity: 45.0,
		cpuTemp:      55.0,
		start:        time.Now(),
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

func (m *Mock) Available() bool { return true }

func (m *Mock) Temperature() (float64, error) {
	elapsed := m.now().Sub(m.start).Hours()
	daily := 2.0 * (0.5 + 0.5*math.Sin(elapsed*2*math.Pi/24))
	return m.baseTemp + daily + m.uniform(-0.5, 0.5), nil
}

func (m *Mock) Humidity() (float64, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	slow := 10.0 * (0.5 + 0.5*math.Sin(elapsed/7200))
	h := m.baseHumidity + slow + m.uniform(-2, 2)
	return math.Max(20, math.Min(80, h)), nil
}

func (m *Mock) CPUTemperature() (float64, error) {
	return m.cpuTemp + m.uniform(-3, 8), nil
}

func (m *Mock) Display(text string) error {
	slog.Debug("mock sensor: display", "text", text)
	return nil
}

func (m *Mock) uniform(lo, hi float64) float64 {
	return lo + m.rand.Float64()*(hi-lo)
}
