//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives actual relay hardware through the Linux GPIO character
// device.
type RealLines struct {
	chip  *gpiocdev.Chip
	pump  *gpiocdev.Line
	valve *gpiocdev.Line
	fert  *gpiocdev.Line
	light *gpiocdev.Line
}

// NewRealLines requests the four actuator pins as outputs, all driven low.
// Relay boards energize on high, so a fresh request leaves every actuator
// off.
func NewRealLines(pinPump, pinValve, pinFertilizer, pinLights int) (*RealLines, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealLines{chip: chip}
	for _, req := range []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"pump", pinPump, &r.pump},
		{"valve", pinValve, &r.valve},
		{"fertilizer", pinFertilizer, &r.fert},
		{"lights", pinLights, &r.light},
	} {
		line, err := chip.RequestLine(req.pin, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.pin, err)
		}
		*req.dst = line
	}

	return r, nil
}

// Apply drives all four pins to the given logical states.
func (r *RealLines) Apply(pump, valve, fertilizer, lights bool) error {
	for _, set := range []struct {
		name string
		line *gpiocdev.Line
		on   bool
	}{
		{"pump", r.pump, pump},
		{"valve", r.valve, valve},
		{"fertilizer", r.fert, fertilizer},
		{"lights", r.light, lights},
	} {
		if err := set.line.SetValue(level(set.on)); err != nil {
			return fmt.Errorf("set %s pin: %w", set.name, err)
		}
	}
	return nil
}

// Close drives every requested pin low before releasing it, so a daemon
// shutdown never leaves a pump running.
func (r *RealLines) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{
		{"pump", r.pump},
		{"valve", r.valve},
		{"fertilizer", r.fert},
		{"lights", r.light},
	} {
		if l.line == nil {
			continue
		}
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("lower %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
