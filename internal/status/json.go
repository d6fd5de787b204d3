package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Mode          string        `json:"mode"`
	Alert         uint8         `json:"alert"`
	Channels      []ChannelJSON `json:"channels"`
	Actuators     ActuatorJSON  `json:"actuators"`
	PumpTimer     uint16        `json:"pump_timer"`
	Frame         FrameJSON     `json:"frame"`
	Ready         bool          `json:"ready"`
	Ticks         uint64        `json:"ticks"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one sensor channel.
type ChannelJSON struct {
	Average   uint8  `json:"average"`
	Threshold uint8  `json:"threshold"`
	Min       uint8  `json:"min"`
	Max       uint8  `json:"max"`
	Trend     string `json:"trend"`
}

// ActuatorJSON is the JSON representation of the actuator outputs.
type ActuatorJSON struct {
	Pump       bool `json:"pump"`
	Valve      bool `json:"valve"`
	Fertilizer bool `json:"fertilizer"`
	Lights     bool `json:"lights"`
}

// FrameJSON is the JSON representation of the frame classifier state.
type FrameJSON struct {
	Stage   string `json:"stage"`
	Green   uint16 `json:"green"`
	Red     uint16 `json:"red"`
	Brown   uint16 `json:"brown"`
	Total   uint16 `json:"total"`
	Score   uint16 `json:"score"`
	Harvest bool   `json:"harvest"`
	Pest    bool   `json:"pest"`
	Disease bool   `json:"disease"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	AlertChanges  int `json:"alert_changes"`
	PumpOn        int `json:"pump_on"`
	PumpOff       int `json:"pump_off"`
	FertilizerOn  int `json:"fertilizer_on"`
	FertilizerOff int `json:"fertilizer_off"`
	LightsOn      int `json:"lights_on"`
	LightsOff     int `json:"lights_off"`
	Frames        int `json:"frames"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	SerialPort  string `json:"serial_port,omitempty"`
	DBPath      string `json:"db_path,omitempty"`
	Session     string `json:"session"`
}

func buildInner(snap Snapshot) StatusInner {
	channels := make([]ChannelJSON, len(snap.Engine.Channels))
	for i, ch := range snap.Engine.Channels {
		channels[i] = ChannelJSON{
			Average:   ch.Average,
			Threshold: ch.Threshold,
			Min:       ch.Min,
			Max:       ch.Max,
			Trend:     string(ch.Trend),
		}
	}

	f := snap.Engine.Frame

	return StatusInner{
		Mode:     string(snap.Mode),
		Alert:    snap.Engine.AlertLevel,
		Channels: channels,
		Actuators: ActuatorJSON{
			Pump:       snap.Engine.Pump,
			Valve:      snap.Engine.Valve,
			Fertilizer: snap.Engine.Fertilizer,
			Lights:     snap.Engine.Lights,
		},
		PumpTimer: snap.Engine.PumpTimer,
		Frame: FrameJSON{
			Stage:   string(f.Stage),
			Green:   f.Green,
			Red:     f.Red,
			Brown:   f.Brown,
			Total:   f.Total,
			Score:   f.Score,
			Harvest: f.Harvest,
			Pest:    f.Pest,
			Disease: f.Disease,
		},
		Ready:         snap.Baselined,
		Ticks:         snap.Ticks,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			AlertChanges:  snap.Counts.AlertChanges,
			PumpOn:        snap.Counts.PumpOn,
			PumpOff:       snap.Counts.PumpOff,
			FertilizerOn:  snap.Counts.FertilizerOn,
			FertilizerOff: snap.Counts.FertilizerOff,
			LightsOn:      snap.Counts.LightsOn,
			LightsOff:     snap.Counts.LightsOff,
			Frames:        snap.Counts.Frames,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			SerialPort:  snap.Config.SerialPort,
			DBPath:      snap.Config.DBPath,
			Session:     snap.Config.Session,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
