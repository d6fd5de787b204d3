package engine

// channel is one sensor stream: an eight-sample window with a running sum,
// observed extremes, an adaptive alert threshold and a trend register.
type channel struct {
	history     [HistoryDepth]uint8
	writePtr    uint8
	sum         uint16 // exact sum of the window; eight full-scale samples need 11 bits
	average     uint8  // sum >> 3
	min         uint8
	max         uint8
	threshold   uint8
	prevAverage uint8
	trend       Trend
}

func (c *channel) reset() {
	*c = channel{min: 255, threshold: DefaultThreshold, trend: TrendStable}
}

// update folds one sample into the window. Unwritten slots hold zero and
// pull the average down until the window fills the first time.
func (c *channel) update(sample uint8, learn bool) {
	evicted := c.history[c.writePtr]
	c.history[c.writePtr] = sample
	c.writePtr = (c.writePtr + 1) % HistoryDepth
	c.sum = c.sum - uint16(evicted) + uint16(sample)
	c.average = uint8(c.sum >> 3)

	if sample < c.min {
		c.min = sample
	}
	if sample > c.max {
		c.max = sample
	}
	if learn {
		c.threshold = (c.max >> 1) + (c.min >> 1) + ThresholdBias
	}

	// The band comparison wraps in eight bits, like the registers it
	// mirrors: a previous average near the rail wraps, never saturates.
	switch {
	case c.average > c.prevAverage+TrendBand:
		c.trend = TrendRising
	case c.average < c.prevAverage-TrendBand:
		c.trend = TrendFalling
	default:
		c.trend = TrendStable
	}
	c.prevAverage = c.average
}

func (c *channel) snapshot() ChannelSnapshot {
	return ChannelSnapshot{
		Average:   c.average,
		Threshold: c.threshold,
		Min:       c.min,
		Max:       c.max,
		Trend:     c.trend,
	}
}
