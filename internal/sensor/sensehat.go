package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default device paths on Raspberry Pi OS. The HTS221 humidity/temperature
// chip appears under iio; the CPU thermal zone is standard across Pi models.
const (
	defaultIIOGlob     = "/sys/bus/iio/devices/iio:device*"
	defaultCPUTempPath = "/sys/class/thermal/thermal_zone0/temp"
	defaultTextDevice  = "/dev/sense-hat-text"
)

// senseHAT reads the Sense HAT sensors through sysfs. All paths are fields so
// tests can point them at fixtures.
type senseHAT struct {
	tempRawPath   string // in_temp_raw + offset/scale applied by readScaled
	humidRawPath  string
	cpuTempPath   string
	textDevice    string
	available     bool
}

func newSenseHAT() *senseHAT {
	h := &senseHAT{cpuTempPath: defaultCPUTempPath, textDevice: defaultTextDevice}
	matches, _ := filepath.Glob(defaultIIOGlob)
	for _, dir := range matches {
		name, err := os.ReadFile(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(name)) == "hts221" {
			h.tempRawPath = filepath.Join(dir, "in_temp_raw")
			h.humidRawPath = filepath.Join(dir, "in_humidityrelative_raw")
			h.available = true
			break
		}
	}
	return h
}

func (h *senseHAT) Available() bool { return h.available }

func (h *senseHAT) Temperature() (float64, error) {
	return h.readScaled(h.tempRawPath)
}

func (h *senseHAT) Humidity() (float64, error) {
	return h.readScaled(h.humidRawPath)
}

// CPUTemperature reads the SoC thermal zone, which reports millidegrees.
func (h *senseHAT) CPUTemperature() (float64, error) {
	milli, err := readFloatFile(h.cpuTempPath)
	if err != nil {
		return 0, fmt.Errorf("read cpu thermal zone: %w", err)
	}
	return milli / 1000.0, nil
}

// Display writes to the framebuffer text device when present. The driver is
// optional, so a missing device is reported as an error and left to the
// caller to ignore.
func (h *senseHAT) Display(text string) error {
	if err := os.WriteFile(h.textDevice, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write led text device: %w", err)
	}
	return nil
}

// readScaled reads an iio raw channel and applies its sibling offset and
// scale attributes: value = (raw + offset) * scale.
func (h *senseHAT) readScaled(rawPath string) (float64, error) {
	if rawPath == "" {
		return 0, fmt.Errorf("sensor channel not present")
	}
	raw, err := readFloatFile(rawPath)
	if err != nil {
		return 0, fmt.Errorf("read raw channel: %w", err)
	}
	base := strings.TrimSuffix(rawPath, "_raw")
	offset, err := readFloatFile(base + "_offset")
	if err != nil {
		offset = 0
	}
	scale, err := readFloatFile(base + "_scale")
	if err != nil {
		return 0, fmt.Errorf("read channel scale: %w", err)
	}
	return (raw + offset) * scale, nil
}

func readFloatFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
