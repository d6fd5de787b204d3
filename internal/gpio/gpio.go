// Package gpio drives the actuator output pins with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Lines drives the four actuator outputs.
type Lines interface {
	// Apply drives all four pins to the given logical states.
	// Raw levels are active-high: logical on = raw 1.
	Apply(pump, valve, fertilizer, lights bool) error

	// Close drives every pin low and releases GPIO resources.
	Close() error
}

// State is one complete set of actuator outputs.
type State struct {
	Pump       bool
	Valve      bool
	Fertilizer bool
	Lights     bool
}

// Pin definitions (BCM numbering)
const (
	PinPump       = 17 // irrigation pump relay
	PinValve      = 27 // irrigation valve relay
	PinFertilizer = 22 // fertilizer doser relay
	PinLights     = 23 // grow light relay
)
