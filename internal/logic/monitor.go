package logic

import "time"

// Monitor turns analysis results into events and keeps counts. A fob sends
// the same code for as long as the button is held, so a decode identical to
// the previous one within the repeat window is counted as a duplicate and
// not emitted.
type Monitor struct {
	repeatWindow  time.Duration
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time

	lastKey  string
	lastSeen time.Time
}

// NewMonitor creates a monitor. The startTime is used for calculating uptime
// in heartbeat events.
func NewMonitor(repeatWindow time.Duration, startTime time.Time) *Monitor {
	return &Monitor{
		repeatWindow:  repeatWindow,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Record accounts for one analyzed capture and returns the event to publish,
// or nil for an empty capture or a repeated code.
func (m *Monitor) Record(now time.Time, res Result) *Event {
	if res.Outcome == OutcomeNoSignal {
		return nil
	}
	m.eventCounts.Captures++

	if res.Outcome == OutcomeUndecoded {
		m.eventCounts.Undecoded++
		m.lastKey = ""
		return &Event{Timestamp: now, Type: EventUndecoded, Pulses: len(res.Signal)}
	}

	key := res.Code.Protocol + ":" + res.Code.Data.String()
	if key == m.lastKey && now.Sub(m.lastSeen) < m.repeatWindow {
		m.eventCounts.Duplicates++
		m.lastSeen = now
		return nil
	}
	m.lastKey, m.lastSeen = key, now
	m.eventCounts.Decoded++
	return &Event{Timestamp: now, Type: EventDecoded, Code: res.Code, Pulses: len(res.Signal)}
}

// RecordTransmit accounts for one transmission attempt.
func (m *Monitor) RecordTransmit(now time.Time, pulses int, err error) Event {
	if err != nil {
		m.eventCounts.TxFailed++
		return Event{Timestamp: now, Type: EventTxFailed, Pulses: pulses, Error: err.Error()}
	}
	m.eventCounts.Transmitted++
	return Event{Timestamp: now, Type: EventTransmitted, Pulses: pulses}
}

// Counts returns the counts so far.
func (m *Monitor) Counts() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
