// Package engine implements the decision core of the farm monitor as a
// synchronous state machine. This package has NO external dependencies (no
// GPIO, MQTT, OS, or time.Sleep). The core advances exactly one tick per
// Tick call; everything it learns arrives in the Input vector, and
// everything it decides leaves through the Output vector or a Snapshot.
package engine

// Mode selects which half of the core runs on a tick.
type Mode string

const (
	ModeSensor Mode = "SENSOR" // window averaging, alerts, actuator control
	ModeML     Mode = "ML"     // pixel-stream frame classification
)

// Trend describes how a channel's average moved on its last update.
type Trend string

const (
	TrendRising  Trend = "RISING"
	TrendFalling Trend = "FALLING"
	TrendStable  Trend = "STABLE"
)

// Stage is the frame classifier's pipeline stage. The classifier advances
// at most one stage per tick: counts close on the tick the row ends, the
// weighted sums land one tick later, the verdict one tick after that.
type Stage string

const (
	StageIdle         Stage = "IDLE"
	StageAccumulating Stage = "ACCUMULATING"
	StageBoundary     Stage = "BOUNDARY"
	StageDone         Stage = "DONE"
)

// Channel roles. Auto-control reads moisture, nutrient and light; the
// temperature channel is tracked and alarmed but drives no actuator.
const (
	ChannelMoisture = 0
	ChannelNutrient = 1
	ChannelLight    = 2
	ChannelTemp     = 3

	NumChannels = 4
)

// Tuning constants the control behavior is calibrated against. They are
// compiled in, not configured at runtime.
const (
	HistoryDepth     = 8   // samples per channel window
	DefaultThreshold = 128 // alert threshold before any learning
	ThresholdBias    = 20  // added to the learned midpoint
	TrendBand        = 5   // +/- band around the previous average that reads as stable

	AggregationWindow = 16 // active sensor ticks between alert/control evaluations

	MoistureLow  = 80  // below: start irrigation
	MoistureHigh = 180 // above: stop irrigation
	NutrientLow  = 60  // below: run fertilizer
	LightLow     = 100 // below: run grow lights
	PumpRunTicks = 5000

	WeightGreen = 100
	WeightRed   = 50
	WeightBrown = 25
)

// Input is the per-tick input vector. Reset beats Enable; a disabled tick
// changes nothing at all.
type Input struct {
	Reset  bool
	Enable bool
	Mode   Mode
	VSync  bool  // frame start (ML path): zeroes pixel counts
	HRef   bool  // pixel valid (ML path)
	Sensor uint8 // selected channel; only the low two bits matter
	Auto   bool  // allow actuator decisions at evaluation ticks
	Learn  bool  // allow threshold adaptation
	Sample uint8 // sensor reading or pixel byte, depending on Mode
}

// Output is the per-tick output vector, sampled after the tick's writes
// have landed. The status byte layout follows the mode the tick ran in:
//
//	sensor: alert level (7:4), ch0 rising (3), ch0 stable (2), pump (1), fertilizer (0)
//	ML:     harvest (7), pest (6), disease (5), low score bits (4:0)
type Output struct {
	Status     uint8
	Pump       bool
	Valve      bool
	Fertilizer bool
	Lights     bool
}

// ChannelSnapshot is one channel's externally visible state.
type ChannelSnapshot struct {
	Average   uint8
	Threshold uint8
	Min       uint8
	Max       uint8
	Trend     Trend
}

// FrameSnapshot is the frame classifier's externally visible state.
type FrameSnapshot struct {
	Stage Stage
	Green uint16
	Red   uint16
	Brown uint16
	Total uint16

	NGreen uint16
	NRed   uint16
	NBrown uint16
	Score  uint16

	Harvest bool
	Pest    bool
	Disease bool
}

// Snapshot is a copy of all externally visible core state as of the end of
// the last tick. It is a plain value; callers may hold it without locks.
type Snapshot struct {
	Channels   [NumChannels]ChannelSnapshot
	AlertLevel uint8

	Pump       bool
	Valve      bool
	Fertilizer bool
	Lights     bool
	PumpTimer  uint16

	Frame FrameSnapshot
}
