package engine

// Core is the whole decision engine. It owns every register exclusively;
// callers supply one Input per tick and read the Output or a Snapshot,
// never the registers themselves.
type Core struct {
	channels [NumChannels]channel
	alert    alertState
	act      actuators
	frame    frameState
}

// New returns a Core in its power-on state.
func New() *Core {
	c := &Core{}
	c.Reset()
	return c
}

// Reset snaps every register to its power-on value: thresholds at 128, min
// at 255, max at 0, the pipeline back to Idle, everything else zero.
func (c *Core) Reset() {
	for i := range c.channels {
		c.channels[i].reset()
	}
	c.alert.reset()
	c.act.reset()
	c.frame.reset()
}

// Tick advances the core by one tick. Reset overrides everything including
// Enable; a disabled tick changes nothing and returns the standing state.
// Cross-component reads within a tick observe state as of the end of the
// previous tick: evaluation and auto-control see the channel averages from
// before this tick's sample lands.
func (c *Core) Tick(in Input) Output {
	if in.Reset {
		c.Reset()
		return c.output(in.Mode)
	}
	if !in.Enable {
		return c.output(in.Mode)
	}

	// The pump timer runs in both modes.
	c.act.countdown()

	switch in.Mode {
	case ModeML:
		c.frame.tick(in.VSync, in.HRef, in.Sample)
	default:
		var prev [NumChannels]ChannelSnapshot
		for i := range c.channels {
			prev[i] = c.channels[i].snapshot()
		}
		c.channels[in.Sensor&0x03].update(in.Sample, in.Learn)
		if c.alert.advance() {
			c.alert.evaluate(prev)
			if in.Auto {
				c.act.decide(prev)
			}
		}
	}

	return c.output(in.Mode)
}

// output assembles the per-tick output vector from end-of-tick state.
func (c *Core) output(mode Mode) Output {
	out := Output{
		Pump:       c.act.pump,
		Valve:      c.act.valve,
		Fertilizer: c.act.fertilizer,
		Lights:     c.act.lights,
	}

	if mode == ModeML {
		out.Status = uint8(c.frame.score) & 0x1F
		if c.frame.harvest {
			out.Status |= 1 << 7
		}
		if c.frame.pest {
			out.Status |= 1 << 6
		}
		if c.frame.disease {
			out.Status |= 1 << 5
		}
		return out
	}

	out.Status = c.alert.level << 4
	if c.channels[0].trend == TrendRising {
		out.Status |= 1 << 3
	}
	if c.channels[0].trend == TrendStable {
		out.Status |= 1 << 2
	}
	if c.act.pump {
		out.Status |= 1 << 1
	}
	if c.act.fertilizer {
		out.Status |= 1
	}
	return out
}

// Snapshot copies all externally visible state as of the end of the last
// tick.
func (c *Core) Snapshot() Snapshot {
	var s Snapshot
	for i := range c.channels {
		s.Channels[i] = c.channels[i].snapshot()
	}
	s.AlertLevel = c.alert.level
	s.Pump = c.act.pump
	s.Valve = c.act.valve
	s.Fertilizer = c.act.fertilizer
	s.Lights = c.act.lights
	s.PumpTimer = c.act.pumpTimer
	s.Frame = c.frame.snapshot()
	return s
}
