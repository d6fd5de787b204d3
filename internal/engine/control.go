package engine

// alertState carries the evaluation cadence counter and the last computed
// alert level. The level only moves at evaluation ticks; in between it
// holds whatever the last evaluation produced.
type alertState struct {
	level   uint8
	cadence uint8 // four-bit counter; evaluation fires when it reaches 15
}

func (a *alertState) reset() {
	*a = alertState{}
}

// advance counts one active sensor tick and reports whether this tick is an
// evaluation instant. The counter wraps at the aggregation window.
func (a *alertState) advance() bool {
	a.cadence = (a.cadence + 1) & (AggregationWindow - 1)
	return a.cadence == AggregationWindow-1
}

// evaluate recounts the alert level from channel state captured at the end
// of the previous tick: one point per channel sitting above its threshold.
func (a *alertState) evaluate(prev [NumChannels]ChannelSnapshot) {
	n := uint8(0)
	for _, ch := range prev {
		if ch.Average > ch.Threshold {
			n++
		}
	}
	a.level = n
}

// actuators is the pump/valve/fertilizer/lights register block. Pump and
// valve always switch together; the valve has no timer of its own.
type actuators struct {
	pump       bool
	valve      bool
	fertilizer bool
	lights     bool
	pumpTimer  uint16
}

func (a *actuators) reset() {
	*a = actuators{}
}

// countdown runs every enabled tick in either mode. The step from 1 to 0
// is what shuts the pump and valve; sitting at zero does nothing.
func (a *actuators) countdown() {
	if a.pumpTimer == 0 {
		return
	}
	a.pumpTimer--
	if a.pumpTimer == 0 {
		a.pump = false
		a.valve = false
	}
}

// decide issues auto-control at an evaluation instant, reading channel
// state captured at the end of the previous tick. It runs after countdown,
// so a fresh irrigation trigger overrides a timer expiring the same tick.
// Moisture between the two setpoints leaves the pump as it was.
func (a *actuators) decide(prev [NumChannels]ChannelSnapshot) {
	moisture := prev[ChannelMoisture].Average
	switch {
	case moisture < MoistureLow:
		a.pump = true
		a.valve = true
		a.pumpTimer = PumpRunTicks
	case moisture > MoistureHigh:
		a.pump = false
		a.valve = false
	}

	a.fertilizer = prev[ChannelNutrient].Average < NutrientLow
	a.lights = prev[ChannelLight].Average < LightLow
}
