// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/farm-monitor/internal/engine"
)

// Topic is the MQTT topic for monitor events.
const Topic = "farm/monitor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "farm/monitor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a monitor event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event engine.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Monitor MonitorPayload `json:"monitor"`
}

// MonitorPayload contains the monitor event details.
type MonitorPayload struct {
	Timestamp string           `json:"timestamp"`
	Event     string           `json:"event"`
	Alert     uint8            `json:"alert"`
	Channels  []ChannelPayload `json:"channels"`
	Actuators ActuatorPayload  `json:"actuators"`
	Frame     *FramePayload    `json:"frame,omitempty"`
}

// ChannelPayload is one sensor channel's state in the event payload.
type ChannelPayload struct {
	Average   uint8  `json:"average"`
	Threshold uint8  `json:"threshold"`
	Trend     string `json:"trend"`
}

// ActuatorPayload is the actuator output state in the event payload.
type ActuatorPayload struct {
	Pump       bool `json:"pump"`
	Valve      bool `json:"valve"`
	Fertilizer bool `json:"fertilizer"`
	Lights     bool `json:"lights"`
}

// FramePayload carries the frame classifier verdict. Only attached to
// FRAME_VERDICT events.
type FramePayload struct {
	Green   uint16 `json:"green"`
	Red     uint16 `json:"red"`
	Brown   uint16 `json:"brown"`
	Total   uint16 `json:"total"`
	Score   uint16 `json:"score"`
	Harvest bool   `json:"harvest"`
	Pest    bool   `json:"pest"`
	Disease bool   `json:"disease"`
}

// FormatPayload creates the JSON payload for a monitor event.
func FormatPayload(event engine.Event) ([]byte, error) {
	channels := make([]ChannelPayload, len(event.State.Channels))
	for i, ch := range event.State.Channels {
		channels[i] = ChannelPayload{
			Average:   ch.Average,
			Threshold: ch.Threshold,
			Trend:     string(ch.Trend),
		}
	}

	payload := Payload{
		Monitor: MonitorPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Alert:     event.State.AlertLevel,
			Channels:  channels,
			Actuators: ActuatorPayload{
				Pump:       event.State.Pump,
				Valve:      event.State.Valve,
				Fertilizer: event.State.Fertilizer,
				Lights:     event.State.Lights,
			},
		},
	}

	if event.Type == engine.EventFrameVerdict {
		f := event.State.Frame
		payload.Monitor.Frame = &FramePayload{
			Green:   f.Green,
			Red:     f.Red,
			Brown:   f.Brown,
			Total:   f.Total,
			Score:   f.Score,
			Harvest: f.Harvest,
			Pest:    f.Pest,
			Disease: f.Disease,
		}
	}

	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
