package engine

import "time"

// EventType represents an observable transition of the core.
type EventType string

const (
	EventAlertChanged  EventType = "ALERT_CHANGED"
	EventPumpOn        EventType = "PUMP_ON"
	EventPumpOff       EventType = "PUMP_OFF"
	EventFertilizerOn  EventType = "FERTILIZER_ON"
	EventFertilizerOff EventType = "FERTILIZER_OFF"
	EventLightsOn      EventType = "LIGHTS_ON"
	EventLightsOff     EventType = "LIGHTS_OFF"
	EventFrameVerdict  EventType = "FRAME_VERDICT"
)

// Event is one transition to be published, carrying the snapshot that
// produced it.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     Snapshot
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	AlertChanges  int
	PumpOn        int
	PumpOff       int
	FertilizerOn  int
	FertilizerOff int
	LightsOn      int
	LightsOff     int
	Frames        int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Watcher derives transition events from successive core snapshots. The
// first observation establishes the baseline and emits nothing.
type Watcher struct {
	prev          Snapshot
	baselined     bool
	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewWatcher creates a watcher. The startTime is used for calculating
// uptime in heartbeat events.
func NewWatcher(startTime time.Time) *Watcher {
	return &Watcher{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Observe compares s against the previous snapshot and returns the events
// the difference implies: alert first, then pump, fertilizer, lights, then
// a frame verdict if the pipeline just finished.
func (w *Watcher) Observe(now time.Time, s Snapshot) []Event {
	if !w.baselined {
		w.prev = s
		w.baselined = true
		return nil
	}
	prev := w.prev
	w.prev = s

	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Timestamp: now, Type: t, State: s})
	}

	if s.AlertLevel != prev.AlertLevel {
		add(EventAlertChanged)
		w.counts.AlertChanges++
	}
	if s.Pump != prev.Pump {
		if s.Pump {
			add(EventPumpOn)
			w.counts.PumpOn++
		} else {
			add(EventPumpOff)
			w.counts.PumpOff++
		}
	}
	if s.Fertilizer != prev.Fertilizer {
		if s.Fertilizer {
			add(EventFertilizerOn)
			w.counts.FertilizerOn++
		} else {
			add(EventFertilizerOff)
			w.counts.FertilizerOff++
		}
	}
	if s.Lights != prev.Lights {
		if s.Lights {
			add(EventLightsOn)
			w.counts.LightsOn++
		} else {
			add(EventLightsOff)
			w.counts.LightsOff++
		}
	}
	if s.Frame.Stage == StageDone && prev.Frame.Stage != StageDone {
		add(EventFrameVerdict)
		w.counts.Frames++
	}

	return events
}

// IsBaselined returns whether the watcher has seen a first snapshot.
func (w *Watcher) IsBaselined() bool {
	return w.baselined
}

// Counts returns the event tallies since startup.
func (w *Watcher) Counts() EventCounts {
	return w.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (w *Watcher) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !w.baselined {
		return nil
	}

	if now.Sub(w.lastHeartbeat) < interval {
		return nil
	}

	w.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(w.startTime),
		Counts:    w.counts,
	}
}
