//go:build !linux

package gpio

import "errors"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(pinPump, pinValve, pinFertilizer, pinLights int) (*RealLines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Apply is not implemented on non-Linux platforms.
func (r *RealLines) Apply(pump, valve, fertilizer, lights bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}
