// Package status provides a thread-safe status tracker for the farm-monitor
// daemon. It is designed to be read by HTTP handlers and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/farm-monitor/internal/engine"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	SerialPort  string // empty = scripted fake source
	DBPath      string // empty = history disabled
	Session     string // UUID of the current run
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Engine        engine.Snapshot
	Mode          engine.Mode
	Baselined     bool
	Counts        engine.EventCounts
	Ticks         uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Mode:      engine.ModeSensor,
			Config:    cfg,
		},
	}
}

// Update sets the engine state, active mode, baseline status, event counts
// and tick count. Called from the run loop on every tick.
func (t *Tracker) Update(es engine.Snapshot, mode engine.Mode, baselined bool, counts engine.EventCounts, ticks uint64) {
	t.mu.Lock()
	t.snap.Engine = es
	t.snap.Mode = mode
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.snap.Ticks = ticks
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
