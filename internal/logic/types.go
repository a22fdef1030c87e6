// Package logic contains the capture analysis pipeline and event accounting.
// This package has NO hardware dependencies (no GPIO, radio, MQTT, or OS).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Outcome is the result class of one analyzed capture.
type Outcome string

const (
	OutcomeNoSignal  Outcome = "NO_SIGNAL"
	OutcomeUndecoded Outcome = "UNDECODED"
	OutcomeDecoded   Outcome = "DECODED"
)

// Message is the user-visible wording of the outcome.
func (o Outcome) Message(code protocol.Code) string {
	switch o {
	case OutcomeDecoded:
		return "decoded as " + code.Protocol
	case OutcomeUndecoded:
		return "undecoded"
	}
	return "no signal"
}

// WholeSignal is Result.Train when the decode matched the full signal.
const WholeSignal = -1

// Result is the outcome of analyzing one captured Signal.
type Result struct {
	Outcome Outcome
	// Signal is the normalized capture.
	Signal pulse.Signal
	Stats  pulse.Statistics
	Trains []pulse.Train

	// Code and Train are set when Outcome is OutcomeDecoded.
	Code  protocol.Code
	Train int
}

// EventType names a published event.
type EventType string

const (
	EventDecoded     EventType = "DECODED"
	EventUndecoded   EventType = "UNDECODED"
	EventTransmitted EventType = "TRANSMITTED"
	EventTxFailed    EventType = "TX_FAILED"
)

// Event is one analyzed capture or transmission to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Code      protocol.Code
	Pulses    int
	Error     string

	// Set by the caller once the capture is stored.
	CaptureID    string
	FrequencyMHz float64
}

// EventCounts tracks outcomes since startup.
type EventCounts struct {
	Captures    int
	Decoded     int
	Undecoded   int
	Duplicates  int
	Transmitted int
	TxFailed    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
