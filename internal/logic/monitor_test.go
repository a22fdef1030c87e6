package logic

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/rf-sniffer/internal/protocol"
)

func decoded(value uint64) Result {
	return Result{
		Outcome: OutcomeDecoded,
		Code:    protocol.Code{Protocol: "Came", BitCount: 12, Data: protocol.FromUint64(value, 12)},
		Train:   WholeSignal,
	}
}

func TestNewMonitor(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if m.repeatWindow != time.Second {
		t.Errorf("expected repeat window 1s, got %v", m.repeatWindow)
	}
	if !m.lastHeartbeat.Equal(startTime) {
		t.Errorf("expected lastHeartbeat %v, got %v", startTime, m.lastHeartbeat)
	}
}

func TestRecordOutcomes(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, now)

	if e := m.Record(now, Result{Outcome: OutcomeNoSignal}); e != nil {
		t.Errorf("expected no event for empty capture, got %+v", e)
	}

	e := m.Record(now, Result{Outcome: OutcomeUndecoded})
	if e == nil || e.Type != EventUndecoded {
		t.Fatalf("expected UNDECODED event, got %+v", e)
	}

	e = m.Record(now, decoded(0xABC))
	if e == nil || e.Type != EventDecoded {
		t.Fatalf("expected DECODED event, got %+v", e)
	}
	if e.Code.Protocol != "Came" {
		t.Errorf("expected Came, got %s", e.Code.Protocol)
	}

	c := m.Counts()
	if c.Captures != 2 || c.Decoded != 1 || c.Undecoded != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestRepeatedCodeSuppressed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, now)

	if m.Record(now, decoded(0xABC)) == nil {
		t.Fatal("first decode suppressed")
	}
	// Held button: same code keeps arriving inside the window.
	if e := m.Record(now.Add(500*time.Millisecond), decoded(0xABC)); e != nil {
		t.Errorf("expected repeat suppressed, got %+v", e)
	}
	if e := m.Record(now.Add(1400*time.Millisecond), decoded(0xABC)); e != nil {
		t.Errorf("window should slide with each repeat, got %+v", e)
	}
	// A different code is always emitted.
	if m.Record(now.Add(1500*time.Millisecond), decoded(0x123)) == nil {
		t.Error("different code suppressed")
	}
	// After the window, the same code is a new press.
	if m.Record(now.Add(5*time.Second), decoded(0x123)) == nil {
		t.Error("code after window suppressed")
	}

	c := m.Counts()
	if c.Decoded != 3 || c.Duplicates != 2 || c.Captures != 5 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestUndecodedBreaksRepeat(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, now)
	m.Record(now, decoded(0xABC))
	m.Record(now.Add(100*time.Millisecond), Result{Outcome: OutcomeUndecoded})
	if m.Record(now.Add(200*time.Millisecond), decoded(0xABC)) == nil {
		t.Error("decode after an undecoded capture suppressed")
	}
}

func TestRecordTransmit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, now)
	e := m.RecordTransmit(now, 120, nil)
	if e.Type != EventTransmitted || e.Pulses != 120 {
		t.Errorf("unexpected event %+v", e)
	}
	e = m.RecordTransmit(now, 0, errors.New("empty plan"))
	if e.Type != EventTxFailed || e.Error != "empty plan" {
		t.Errorf("unexpected event %+v", e)
	}
	c := m.Counts()
	if c.Transmitted != 1 || c.TxFailed != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

// Heartbeat tests

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)

	if hb := m.CheckHeartbeat(startTime.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
	if hb := m.CheckHeartbeat(startTime.Add(time.Hour), -time.Second); hb != nil {
		t.Error("expected nil heartbeat with negative interval")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)

	if hb := m.CheckHeartbeat(startTime.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected nil heartbeat before interval elapsed")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)

	now := startTime.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(now, 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if !hb.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)

	first := startTime.Add(15 * time.Minute)
	if m.CheckHeartbeat(first, 15*time.Minute) == nil {
		t.Fatal("expected first heartbeat")
	}
	if hb := m.CheckHeartbeat(first.Add(time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected nil heartbeat immediately after previous")
	}
	hb := m.CheckHeartbeat(first.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 30*time.Minute {
		t.Errorf("expected uptime 30m, got %v", hb.Uptime)
	}
}

func TestHeartbeatContainsEventCounts(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Second, startTime)

	m.Record(startTime, decoded(0xABC))
	m.Record(startTime.Add(time.Minute), Result{Outcome: OutcomeUndecoded})
	m.RecordTransmit(startTime.Add(2*time.Minute), 50, nil)

	hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Counts.Captures != 2 || hb.Counts.Decoded != 1 || hb.Counts.Undecoded != 1 || hb.Counts.Transmitted != 1 {
		t.Errorf("unexpected counts %+v", hb.Counts)
	}
}
