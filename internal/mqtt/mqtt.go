// Package mqtt publishes decoded codes and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rf-sniffer/internal/logic"
	"github.com/sweeney/rf-sniffer/internal/protocol"
)

// Topic carries one message per analyzed capture or transmission.
const Topic = "rf/sniffer/events"

// TopicSystem carries lifecycle events.
const TopicSystem = "rf/sniffer/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a capture or transmit event. Failures are returned, not
	// fatal.
	Publish(event logic.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event such as STARTUP, SHUTDOWN or HEARTBEAT.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string // shutdown only, e.g. "SIGTERM"
	// RawPayload, if set, is sent as-is; used for full status snapshots.
	RawPayload []byte
	Retained   bool
}

// Payload is the message on Topic.
type Payload struct {
	RF RFPayload `json:"rf"`
}

// RFPayload describes one capture or transmission. Code fields are empty for
// undecoded captures.
type RFPayload struct {
	Timestamp    string  `json:"timestamp"`
	Event        string  `json:"event"`
	Protocol     string  `json:"protocol,omitempty"`
	Kind         string  `json:"kind,omitempty"`
	Bits         int     `json:"bits,omitempty"`
	Data         string  `json:"data,omitempty"`
	Serial       *uint32 `json:"serial,omitempty"`
	Button       string  `json:"button,omitempty"`
	Counter      *uint32 `json:"counter,omitempty"`
	Checksum     string  `json:"checksum,omitempty"`
	Pulses       int     `json:"pulses"`
	CaptureID    string  `json:"capture_id,omitempty"`
	FrequencyMHz float64 `json:"frequency_mhz,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := RFPayload{
		Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
		Event:        string(event.Type),
		Pulses:       event.Pulses,
		CaptureID:    event.CaptureID,
		FrequencyMHz: event.FrequencyMHz,
		Error:        event.Error,
	}
	if c := event.Code; c.Protocol != "" {
		p.Protocol = c.Protocol
		p.Kind = string(c.Kind)
		p.Bits = c.BitCount
		p.Data = "0x" + c.Data.String()
		p.Checksum = c.Checksum
		if c.Kind == protocol.Rolling {
			serial, counter := c.Serial, c.Counter
			p.Serial, p.Counter = &serial, &counter
			p.Button = protocol.ButtonName(c.Button)
		}
	}
	return json.Marshal(Payload{RF: p})
}

// SystemPayload is the message on TopicSystem for events that carry no
// status snapshot (the will, RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// event.RawPayload wins when set.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
