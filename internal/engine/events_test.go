package engine

import (
	"testing"
	"time"
)

func TestWatcherFirstObservationBaselines(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	s.Pump = true
	if events := w.Observe(start, s); len(events) != 0 {
		t.Errorf("first observation should emit nothing, got %d events", len(events))
	}
	if !w.IsBaselined() {
		t.Error("watcher should be baselined after the first observation")
	}
}

func TestWatcherQuietWhenNothingChanges(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	w.Observe(start, s)
	for i := 0; i < 5; i++ {
		if events := w.Observe(start.Add(time.Duration(i)*time.Second), s); len(events) != 0 {
			t.Errorf("iteration %d: expected no events for an unchanged snapshot, got %d", i, len(events))
		}
	}
}

func TestWatcherActuatorTransitions(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	w.Observe(start, s)

	s.Pump = true
	s.Valve = true
	now := start.Add(time.Second)
	events := w.Observe(now, s)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventPumpOn {
		t.Errorf("expected PUMP_ON, got %s", events[0].Type)
	}
	if !events[0].State.Valve {
		t.Error("event should carry the snapshot that produced it")
	}
	if !events[0].Timestamp.Equal(now) {
		t.Errorf("unexpected timestamp: %v", events[0].Timestamp)
	}

	s.Pump = false
	s.Valve = false
	s.Fertilizer = true
	events = w.Observe(now.Add(time.Second), s)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventPumpOff {
		t.Errorf("expected PUMP_OFF first, got %s", events[0].Type)
	}
	if events[1].Type != EventFertilizerOn {
		t.Errorf("expected FERTILIZER_ON second, got %s", events[1].Type)
	}
}

func TestWatcherAlertAndLightsEvents(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	w.Observe(start, s)

	s.AlertLevel = 3
	s.Lights = true
	events := w.Observe(start.Add(time.Second), s)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventAlertChanged {
		t.Errorf("alert change should come first, got %s", events[0].Type)
	}
	if events[0].State.AlertLevel != 3 {
		t.Errorf("expected alert level 3 in event, got %d", events[0].State.AlertLevel)
	}
	if events[1].Type != EventLightsOn {
		t.Errorf("expected LIGHTS_ON, got %s", events[1].Type)
	}
}

func TestWatcherFrameVerdictFiresOncePerFrame(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	s.Frame.Stage = StageAccumulating
	w.Observe(start, s)

	s.Frame.Stage = StageDone
	s.Frame.Score = 39
	events := w.Observe(start.Add(time.Second), s)
	if len(events) != 1 || events[0].Type != EventFrameVerdict {
		t.Fatalf("expected a single FRAME_VERDICT, got %v", events)
	}
	if events[0].State.Frame.Score != 39 {
		t.Errorf("expected score 39 in the verdict event, got %d", events[0].State.Frame.Score)
	}

	// Staying in Done emits nothing further.
	if events := w.Observe(start.Add(2*time.Second), s); len(events) != 0 {
		t.Errorf("expected no repeat verdict, got %d events", len(events))
	}

	// The next frame fires again.
	s.Frame.Stage = StageIdle
	w.Observe(start.Add(3*time.Second), s)
	s.Frame.Stage = StageDone
	if events := w.Observe(start.Add(4*time.Second), s); len(events) != 1 {
		t.Errorf("expected a verdict for the next frame, got %d events", len(events))
	}
}

func TestWatcherCountsAccumulate(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	w.Observe(start, s)

	s.Pump = true
	w.Observe(start.Add(1*time.Second), s)
	s.Pump = false
	w.Observe(start.Add(2*time.Second), s)
	s.AlertLevel = 1
	w.Observe(start.Add(3*time.Second), s)

	counts := w.Counts()
	if counts.PumpOn != 1 || counts.PumpOff != 1 {
		t.Errorf("expected PumpOn=1 PumpOff=1, got %d/%d", counts.PumpOn, counts.PumpOff)
	}
	if counts.AlertChanges != 1 {
		t.Errorf("expected AlertChanges=1, got %d", counts.AlertChanges)
	}
	if counts.Frames != 0 {
		t.Errorf("expected Frames=0, got %d", counts.Frames)
	}
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)
	w.Observe(start, Snapshot{})

	if hb := w.CheckHeartbeat(start.Add(15*time.Minute), 0); hb != nil {
		t.Error("should not return heartbeat when interval is 0 (disabled)")
	}
	if hb := w.CheckHeartbeat(start.Add(15*time.Minute), -time.Minute); hb != nil {
		t.Error("should not return heartbeat when interval is negative")
	}
}

func TestCheckHeartbeatBeforeBaseline(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	if hb := w.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before baseline")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)
	w.Observe(start, Snapshot{})

	if hb := w.CheckHeartbeat(start.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before the interval")
	}

	checkTime := start.Add(15 * time.Minute)
	hb := w.CheckHeartbeat(checkTime, 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat at the interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("expected timestamp %v, got %v", checkTime, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)
	w.Observe(start, Snapshot{})

	t1 := start.Add(15 * time.Minute)
	if hb := w.CheckHeartbeat(t1, 15*time.Minute); hb == nil {
		t.Fatal("should return the first heartbeat")
	}
	if hb := w.CheckHeartbeat(t1.Add(time.Second), 15*time.Minute); hb != nil {
		t.Error("should not return a heartbeat immediately after the previous one")
	}
	if hb := w.CheckHeartbeat(t1.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Fatal("should return the second heartbeat")
	}
}

func TestHeartbeatContainsEventCounts(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := NewWatcher(start)

	var s Snapshot
	w.Observe(start, s)
	s.Pump = true
	w.Observe(start.Add(time.Second), s)

	hb := w.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat")
	}
	if hb.Counts.PumpOn != 1 {
		t.Errorf("expected PumpOn=1 in heartbeat, got %d", hb.Counts.PumpOn)
	}
}
