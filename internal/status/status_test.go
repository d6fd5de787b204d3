package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/farm-monitor/internal/engine"
)

func testEngineSnapshot() engine.Snapshot {
	var s engine.Snapshot
	for i := range s.Channels {
		s.Channels[i] = engine.ChannelSnapshot{
			Average:   uint8(50 + i),
			Threshold: 128,
			Min:       10,
			Max:       90,
			Trend:     engine.TrendStable,
		}
	}
	s.AlertLevel = 1
	s.Pump = true
	s.Valve = true
	s.PumpTimer = 4999
	s.Frame = engine.FrameSnapshot{Stage: engine.StageIdle}
	return s
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":8080", Session: "abc"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 50 {
		t.Errorf("Config.TickMs: got %d, want 50", snap.Config.TickMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Mode != engine.ModeSensor {
		t.Errorf("Mode: got %q, want SENSOR", snap.Mode)
	}
	if snap.Baselined {
		t.Error("expected Baselined=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	es := testEngineSnapshot()
	tr.Update(es, engine.ModeML, true, engine.EventCounts{PumpOn: 3, Frames: 2}, 1234)

	snap := tr.Snapshot()
	if snap.Engine.AlertLevel != 1 {
		t.Errorf("AlertLevel: got %d, want 1", snap.Engine.AlertLevel)
	}
	if !snap.Engine.Pump {
		t.Error("expected Pump=true")
	}
	if snap.Mode != engine.ModeML {
		t.Errorf("Mode: got %q, want ML", snap.Mode)
	}
	if !snap.Baselined {
		t.Error("expected Baselined=true")
	}
	if snap.Counts.PumpOn != 3 {
		t.Errorf("Counts.PumpOn: got %d, want 3", snap.Counts.PumpOn)
	}
	if snap.Counts.Frames != 2 {
		t.Errorf("Counts.Frames: got %d, want 2", snap.Counts.Frames)
	}
	if snap.Ticks != 1234 {
		t.Errorf("Ticks: got %d, want 1234", snap.Ticks)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if got := snap.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", got)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Engine:        testEngineSnapshot(),
		Mode:          engine.ModeSensor,
		Baselined:     true,
		Counts:        engine.EventCounts{PumpOn: 1},
		Ticks:         42,
		StartTime:     start,
		Now:           start.Add(time.Hour),
		MQTTConnected: true,
		Config: Config{
			TickMs:   50,
			Broker:   "tcp://broker:1883",
			HTTPAddr: ":8080",
			Session:  "s-1",
		},
	}

	data := FormatJSON(snap)

	var decoded StatusJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Status.Mode != "SENSOR" {
		t.Errorf("mode: got %q, want SENSOR", decoded.Status.Mode)
	}
	if decoded.Status.Alert != 1 {
		t.Errorf("alert: got %d, want 1", decoded.Status.Alert)
	}
	if len(decoded.Status.Channels) != engine.NumChannels {
		t.Fatalf("channels: got %d, want %d", len(decoded.Status.Channels), engine.NumChannels)
	}
	if decoded.Status.Channels[0].Average != 50 {
		t.Errorf("ch0 average: got %d, want 50", decoded.Status.Channels[0].Average)
	}
	if !decoded.Status.Actuators.Pump {
		t.Error("expected pump=true")
	}
	if decoded.Status.PumpTimer != 4999 {
		t.Errorf("pump_timer: got %d, want 4999", decoded.Status.PumpTimer)
	}
	if decoded.Status.UptimeSeconds != 3600 {
		t.Errorf("uptime_seconds: got %d, want 3600", decoded.Status.UptimeSeconds)
	}
	if decoded.Status.Event != "" {
		t.Errorf("web JSON should not carry an event, got %q", decoded.Status.Event)
	}
	if !decoded.Status.MQTT.Connected {
		t.Error("expected mqtt.connected=true")
	}
	if decoded.Status.Config.Session != "s-1" {
		t.Errorf("session: got %q, want s-1", decoded.Status.Config.Session)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Engine:    testEngineSnapshot(),
		Mode:      engine.ModeSensor,
		StartTime: start,
		Now:       start.Add(time.Minute),
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	if strings.Contains(string(data), "\n") {
		t.Error("system event payload should be compact JSON")
	}

	var decoded StatusJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", decoded.Status.Event)
	}
	if decoded.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", decoded.Status.Reason)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.Update(testEngineSnapshot(), engine.ModeSensor, true, engine.EventCounts{PumpOn: n}, uint64(n))
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}
