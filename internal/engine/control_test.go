package engine

import "testing"

func TestCadenceFiresEverySixteenthTick(t *testing.T) {
	var a alertState
	a.reset()
	for tick := 1; tick <= 3*AggregationWindow; tick++ {
		fired := a.advance()
		want := tick%AggregationWindow == AggregationWindow-1
		if fired != want {
			t.Errorf("tick %d: fired=%v, want %v", tick, fired, want)
		}
	}
}

func TestAlertLevelCountsChannelsOverThreshold(t *testing.T) {
	var a alertState
	a.reset()
	prev := [NumChannels]ChannelSnapshot{
		{Average: 200, Threshold: 128},
		{Average: 128, Threshold: 128}, // equal is not over
		{Average: 129, Threshold: 128},
		{Average: 0, Threshold: 128},
	}
	a.evaluate(prev)
	if a.level != 2 {
		t.Errorf("expected alert level 2, got %d", a.level)
	}

	a.evaluate([NumChannels]ChannelSnapshot{})
	if a.level != 0 {
		t.Errorf("expected alert level 0 after quiet evaluation, got %d", a.level)
	}
}

func TestCountdownShutsPumpOnOneToZero(t *testing.T) {
	a := actuators{pump: true, valve: true, pumpTimer: 2}

	a.countdown()
	if !a.pump || !a.valve {
		t.Error("pump should stay on at timer 1")
	}
	if a.pumpTimer != 1 {
		t.Errorf("expected timer 1, got %d", a.pumpTimer)
	}

	a.countdown()
	if a.pump || a.valve {
		t.Error("pump should shut on the 1 -> 0 step")
	}
	if a.pumpTimer != 0 {
		t.Errorf("expected timer 0, got %d", a.pumpTimer)
	}
}

func TestCountdownIdleAtZero(t *testing.T) {
	// Only the 1 -> 0 step shuts the pump; sitting at zero never does.
	a := actuators{pump: true, valve: true}
	for i := 0; i < 5; i++ {
		a.countdown()
	}
	if !a.pump || !a.valve {
		t.Error("countdown at zero should not touch the pump")
	}
}

func TestDecideIrrigation(t *testing.T) {
	var a actuators
	var prev [NumChannels]ChannelSnapshot

	prev[ChannelMoisture].Average = MoistureLow - 1
	a.decide(prev)
	if !a.pump || !a.valve {
		t.Error("dry soil should start irrigation")
	}
	if a.pumpTimer != PumpRunTicks {
		t.Errorf("expected timer %d, got %d", PumpRunTicks, a.pumpTimer)
	}

	prev[ChannelMoisture].Average = MoistureHigh + 1
	a.decide(prev)
	if a.pump || a.valve {
		t.Error("saturated soil should stop irrigation")
	}
}

func TestDecideDeadBandKeepsPumpState(t *testing.T) {
	a := actuators{pump: true, valve: true, pumpTimer: 40}
	var prev [NumChannels]ChannelSnapshot
	prev[ChannelMoisture].Average = 120

	a.decide(prev)
	if !a.pump || !a.valve {
		t.Error("mid-band moisture should leave the pump running")
	}
	if a.pumpTimer != 40 {
		t.Errorf("mid-band moisture should leave the timer alone, got %d", a.pumpTimer)
	}
}

func TestHighCutLeavesTimerRunning(t *testing.T) {
	a := actuators{pump: true, valve: true, pumpTimer: 1200}
	var prev [NumChannels]ChannelSnapshot
	prev[ChannelMoisture].Average = 250

	a.decide(prev)
	if a.pump || a.valve {
		t.Error("expected pump off above the high setpoint")
	}
	if a.pumpTimer != 1200 {
		t.Errorf("high cut should not clear the timer, got %d", a.pumpTimer)
	}
}

func TestDecideFertilizerAndLights(t *testing.T) {
	var a actuators
	var prev [NumChannels]ChannelSnapshot

	prev[ChannelNutrient].Average = NutrientLow - 1
	prev[ChannelLight].Average = LightLow - 1
	a.decide(prev)
	if !a.fertilizer {
		t.Error("low nutrient should start the fertilizer")
	}
	if !a.lights {
		t.Error("low light should start the grow lights")
	}

	prev[ChannelNutrient].Average = NutrientLow
	prev[ChannelLight].Average = LightLow
	a.decide(prev)
	if a.fertilizer {
		t.Error("fertilizer should stop at the setpoint")
	}
	if a.lights {
		t.Error("lights should stop at the setpoint")
	}
}

func TestFreshTriggerOverridesExpiry(t *testing.T) {
	// Countdown runs before decisions, so a trigger landing on the tick
	// the timer expires restarts the run.
	a := actuators{pump: true, valve: true, pumpTimer: 1}
	a.countdown()
	if a.pump {
		t.Fatal("timer expiry should have shut the pump")
	}

	var prev [NumChannels]ChannelSnapshot
	prev[ChannelMoisture].Average = 10
	a.decide(prev)
	if !a.pump || !a.valve {
		t.Error("fresh trigger should restart irrigation")
	}
	if a.pumpTimer != PumpRunTicks {
		t.Errorf("expected timer %d, got %d", PumpRunTicks, a.pumpTimer)
	}
}
