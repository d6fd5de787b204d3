package serial

import "context"

// FakeSource replays a scripted sequence of readings. With Loop set the
// script repeats forever, which gives -dev runs a steady synthetic feed.
type FakeSource struct {
	Script []Reading
	Loop   bool

	readings chan Reading
	Closed   bool
}

// NewFakeSource creates a FakeSource over the given script.
func NewFakeSource(script []Reading, loop bool) *FakeSource {
	return &FakeSource{
		Script:   script,
		Loop:     loop,
		readings: make(chan Reading),
	}
}

// Readings returns the channel Monitor delivers scripted samples on.
func (f *FakeSource) Readings() <-chan Reading {
	return f.readings
}

// Monitor delivers the script, then either repeats it or waits for
// cancellation. Delivery is demand-paced: a reading is only handed over
// when the consumer is ready for it.
func (f *FakeSource) Monitor(ctx context.Context) error {
	for {
		for _, r := range f.Script {
			select {
			case f.readings <- r:
			case <-ctx.Done():
				return nil
			}
		}
		if !f.Loop {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
