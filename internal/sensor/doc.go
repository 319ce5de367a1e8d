// Package sensor abstracts the environmental hardware behind a small
// interface. The real implementation reads a Raspberry Pi Sense HAT through
// sysfs; a mock implementation generates plausible readings for development
// machines without the hardware.
package sensor
