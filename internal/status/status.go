// Package status provides a thread-safe status tracker for the sniffer
// daemon, read by HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/rf-sniffer/internal/logic"
	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/radio"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	QuietTimeoutMs int64
	HeartbeatMs    int64
	Broker         string
	HTTPAddr       string
	Source         string
	StoreDir       string
}

// Last describes the most recent analyzed capture.
type Last struct {
	Outcome   logic.Outcome
	Code      *protocol.Code
	CaptureID string
	At        time.Time
	Pulses    int
}

// Message is the user-visible outcome, or empty before the first capture.
func (l Last) Message() string {
	if l.Outcome == "" {
		return ""
	}
	var c protocol.Code
	if l.Code != nil {
		c = *l.Code
	}
	return l.Outcome.Message(c)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode          radio.Mode
	Params        radio.Params
	Last          Last
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	// Recent is the number of signals held in memory.
	Recent  int
	Network *NetworkInfo
	Config  Config
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
			Config:    cfg,
		},
	}
}

// Update sets the radio state and event counts. Called from the run loop on
// every tick.
func (t *Tracker) Update(mode radio.Mode, params radio.Params, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Params = params
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetLast records the most recent analyzed capture.
func (t *Tracker) SetLast(last Last) {
	if last.Code != nil {
		c := *last.Code
		last.Code = &c
	}
	t.mu.Lock()
	t.snap.Last = last
	t.mu.Unlock()
}

func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetRecent records how many signals the daemon holds in memory.
func (t *Tracker) SetRecent(n int) {
	t.mu.Lock()
	t.snap.Recent = n
	t.mu.Unlock()
}

func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
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
