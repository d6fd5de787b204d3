// Package serial ingests sensor readings from a line-oriented serial feed.
// The pod's analog front end emits one "channel,value" line per sample;
// both fields are decimal, channel 0-3, value 0-255.
package serial

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Reading is one parsed sample line.
type Reading struct {
	Channel uint8
	Value   uint8
}

// Source produces sensor readings.
type Source interface {
	// Readings returns the channel Monitor delivers parsed samples on.
	Readings() <-chan Reading

	// Monitor reads the feed until the context is cancelled or the feed
	// ends. Malformed lines are logged and skipped, never fatal.
	Monitor(ctx context.Context) error

	// Close releases the underlying feed.
	Close() error
}

// ParseReading parses one "channel,value" line.
func ParseReading(line string) (Reading, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return Reading{}, fmt.Errorf("expected 2 fields, got %d", len(parts))
	}

	ch, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return Reading{}, fmt.Errorf("parse channel %q: %w", parts[0], err)
	}
	if ch > 3 {
		return Reading{}, fmt.Errorf("channel %d out of range 0-3", ch)
	}

	v, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 8)
	if err != nil {
		return Reading{}, fmt.Errorf("parse value %q: %w", parts[1], err)
	}

	return Reading{Channel: uint8(ch), Value: uint8(v)}, nil
}
