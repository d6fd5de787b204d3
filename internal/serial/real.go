package serial

import (
	"bufio"
	"context"
	"fmt"
	"log"

	"go.bug.st/serial"
)

// RealSource reads sample lines from a physical serial port.
type RealSource struct {
	port     serial.Port
	readings chan Reading
}

// Open opens the serial port at 9600 8N1, the pod front end's fixed rate.
func Open(portName string) (*RealSource, error) {
	mode := &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	return &RealSource{
		port:     port,
		readings: make(chan Reading, 16),
	}, nil
}

// Readings returns the channel Monitor delivers parsed samples on.
func (s *RealSource) Readings() <-chan Reading {
	return s.readings
}

// Monitor reads lines from the port and sends parsed readings until the
// context is cancelled or the port errors out.
func (s *RealSource) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)
	for scan.Scan() {
		line := scan.Text()
		reading, err := ParseReading(line)
		if err != nil {
			log.Printf("serial: skipping line %q: %v", line, err)
			continue
		}

		select {
		case s.readings <- reading:
		case <-ctx.Done():
			return nil
		}

		if ctx.Err() != nil {
			return nil
		}
	}
	return scan.Err()
}

// Close closes the serial port. Monitor's scanner unblocks with an error
// once the port is gone.
func (s *RealSource) Close() error {
	return s.port.Close()
}
