package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/farm-monitor/internal/engine"
)

// openTestStore opens a store against a throwaway database file.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartSessionAndList(t *testing.T) {
	s := openTestStore(t)

	if err := s.StartSession("s-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), `{"tick_ms":50}`); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := s.StartSession("s-2", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), `{}`); err != nil {
		t.Fatalf("start session: %v", err)
	}

	ids, err := s.Sessions()
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(ids))
	}
	if ids[0] != "s-2" {
		t.Errorf("expected newest session first, got %q", ids[0])
	}
}

func TestRecordAndQueryReadings(t *testing.T) {
	s := openTestStore(t)

	for tick := uint64(1); tick <= 5; tick++ {
		ch := engine.ChannelSnapshot{
			Average:   uint8(tick * 10),
			Threshold: 128,
			Trend:     engine.TrendRising,
		}
		if err := s.RecordReading("s-1", tick, 0, uint8(tick*20), ch); err != nil {
			t.Fatalf("record reading: %v", err)
		}
	}

	readings, err := s.RecentReadings("s-1", 3)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	if readings[0].Tick != 5 {
		t.Errorf("expected newest first, got tick %d", readings[0].Tick)
	}
	if readings[0].Average != 50 {
		t.Errorf("average: got %d, want 50", readings[0].Average)
	}
	if readings[0].Trend != "RISING" {
		t.Errorf("trend: got %q, want RISING", readings[0].Trend)
	}
}

func TestRecentReadingsScopedToSession(t *testing.T) {
	s := openTestStore(t)

	ch := engine.ChannelSnapshot{Trend: engine.TrendStable}
	if err := s.RecordReading("s-1", 1, 0, 10, ch); err != nil {
		t.Fatalf("record reading: %v", err)
	}
	if err := s.RecordReading("s-2", 1, 0, 20, ch); err != nil {
		t.Fatalf("record reading: %v", err)
	}

	readings, err := s.RecentReadings("s-1", 10)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if readings[0].Sample != 10 {
		t.Errorf("sample: got %d, want 10", readings[0].Sample)
	}
}

func TestChannelSamples(t *testing.T) {
	s := openTestStore(t)

	ch := engine.ChannelSnapshot{Trend: engine.TrendStable}
	samples := []uint8{100, 110, 120, 130}
	for i, v := range samples {
		if err := s.RecordReading("s-1", uint64(i+1), 2, v, ch); err != nil {
			t.Fatalf("record reading: %v", err)
		}
	}
	// A different channel must not leak in.
	if err := s.RecordReading("s-1", 5, 3, 200, ch); err != nil {
		t.Fatalf("record reading: %v", err)
	}

	got, err := s.ChannelSamples("s-1", 2)
	if err != nil {
		t.Fatalf("channel samples: %v", err)
	}
	want := []float64{100, 110, 120, 130}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecordAlertAndActuation(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordAlert("s-1", 16, 2); err != nil {
		t.Fatalf("record alert: %v", err)
	}
	if err := s.RecordActuation("s-1", 16, "PUMP_ON", true, true, false, false); err != nil {
		t.Fatalf("record actuation: %v", err)
	}
}

func TestRecordVerdict(t *testing.T) {
	s := openTestStore(t)

	f := engine.FrameSnapshot{
		Stage: engine.StageDone,
		Green: 100, Red: 5, Brown: 2, Total: 107,
		Score: 39, Harvest: false,
	}
	if err := s.RecordVerdict("s-1", 300, f); err != nil {
		t.Fatalf("record verdict: %v", err)
	}
}

func TestEmptyQueries(t *testing.T) {
	s := openTestStore(t)

	readings, err := s.RecentReadings("nope", 10)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if readings != nil {
		t.Errorf("expected nil for empty result, got %d rows", len(readings))
	}

	samples, err := s.ChannelSamples("nope", 0)
	if err != nil {
		t.Fatalf("channel samples: %v", err)
	}
	if samples != nil {
		t.Errorf("expected nil for empty result, got %d samples", len(samples))
	}
}
