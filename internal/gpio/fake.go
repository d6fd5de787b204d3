package gpio

// FakeLines is a test double that records every applied actuator state.
type FakeLines struct {
	// Applied contains every Apply call in order.
	Applied []State

	// Closed tracks if Close was called
	Closed bool

	// ApplyError, if set, will be returned by Apply()
	ApplyError error
}

// NewFakeLines creates a FakeLines with an empty history.
func NewFakeLines() *FakeLines {
	return &FakeLines{}
}

// Apply records the requested state.
func (f *FakeLines) Apply(pump, valve, fertilizer, lights bool) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Applied = append(f.Applied, State{
		Pump:       pump,
		Valve:      valve,
		Fertilizer: fertilizer,
		Lights:     lights,
	})
	return nil
}

// Last returns the most recently applied state, or the zero State (all off)
// if Apply has never been called.
func (f *FakeLines) Last() State {
	if len(f.Applied) == 0 {
		return State{}
	}
	return f.Applied[len(f.Applied)-1]
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.Closed = true
	return nil
}

// Reset clears the history.
func (f *FakeLines) Reset() {
	f.Applied = nil
	f.Closed = false
}
