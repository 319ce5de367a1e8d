package sensor

import "log/slog"

// Sensor is the hardware access interface used by the sampling engine.
// Temperature, Humidity and CPUTemperature return errors on read faults;
// Display is best-effort and its errors are advisory only.
type Sensor interface {
	// Temperature returns the raw ambient temperature in °C. The value is
	// uncompensated — the sampler corrects for CPU heat soak.
	Temperature() (float64, error)

	// Humidity returns relative humidity as a percentage.
	Humidity() (float64, error)

	// CPUTemperature returns the SoC temperature in °C, used for heat
	// compensation. Unavailability is an error, not a fatal condition.
	CPUTemperature() (float64, error)

	// Display scrolls a short message on the LED matrix, if one exists.
	Display(text string) error

	// Available reports whether real hardware was found at startup.
	Available() bool
}

// New returns the sensor implementation to use. With useMock set, or when no
// real hardware is present, it returns a Mock — the daemon still runs on a
// development machine with generated data.
func New(useMock bool) Sensor {
	if useMock {
		return NewMock()
	}
	hat := newSenseHAT()
	if hat.Available() {
		return hat
	}
	slog.Warn("sensor: no hardware found, falling back to mock readings")
	return NewMock()
}
