package capture

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/sweeney/rf-sniffer/internal/gpio"
	"github.com/sweeney/rf-sniffer/internal/pulse"
	"github.com/sweeney/rf-sniffer/internal/radio"
)

// Session defaults.
const (
	DefaultQuietTimeout = 2 * time.Second
	DefaultMinSamples   = 24
)

// Config tunes a capture. Zero fields take the defaults.
type Config struct {
	Capacity     int
	NoiseFloor   uint32
	Runaway      uint32
	QuietTimeout time.Duration
	MinSamples   int
}

func (c Config) withDefaults() Config {
	if c.QuietTimeout <= 0 {
		c.QuietTimeout = DefaultQuietTimeout
	}
	if c.MinSamples <= 0 {
		c.MinSamples = DefaultMinSamples
	}
	return c
}

// Session owns one receive cycle: arm the radio, collect edges, decide
// completion, hand back the Signal.
type Session struct {
	cfg   Config
	buf   *Buffer
	src   gpio.EdgeSource
	state *radio.State

	attached bool
	stop     atomic.Bool

	// activity tracking, observed at poll time
	lastLen      int
	lastEpoch    uint32
	lastActivity time.Time
}

// NewSession builds a session reading from src.
func NewSession(cfg Config, src gpio.EdgeSource, state *radio.State) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:   cfg,
		buf:   NewBuffer(cfg.Capacity, cfg.NoiseFloor, cfg.Runaway),
		src:   src,
		state: state,
	}
}

// Buffer exposes the underlying buffer for status reporting.
func (s *Session) Buffer() *Buffer {
	return s.buf
}

// Start clears the buffer, moves to Receiving, arms the radio on the
// session's channel and attaches the edge handler. now starts the quiet timer.
func (s *Session) Start(r radio.Control, now time.Time) error {
	if s.attached {
		return fmt.Errorf("start capture: already receiving")
	}
	s.buf.Reset()
	s.stop.Store(false)
	s.lastLen, s.lastEpoch, s.lastActivity = 0, 0, now

	if err := s.state.Transition(radio.Receiving); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	if err := r.StartReceive(s.state.Params()); err != nil {
		s.toIdle()
		return fmt.Errorf("start receive: %w", err)
	}
	if err := s.src.Start(s.buf.OnEdge); err != nil {
		r.StopReceive()
		s.toIdle()
		return fmt.Errorf("attach edge source: %w", err)
	}
	s.attached = true
	return nil
}

// IsComplete reports whether the capture should end: the buffer is full, a
// stop was requested, or the line has been quiet for the timeout with at
// least the minimum number of pulses held.
func (s *Session) IsComplete(now time.Time) bool {
	if s.stop.Load() {
		return true
	}
	n := s.buf.Len()
	if n >= s.buf.Cap() {
		return true
	}
	if e := s.buf.Epoch(); n != s.lastLen || e != s.lastEpoch {
		s.lastLen, s.lastEpoch, s.lastActivity = n, e, now
		return false
	}
	return n >= s.cfg.MinSamples && now.Sub(s.lastActivity) >= s.cfg.QuietTimeout
}

// RequestStop ends the capture at the next completion check. Safe from any
// goroutine.
func (s *Session) RequestStop() {
	s.stop.Store(true)
}

// Overflowed reports whether the current capture dropped pulses.
func (s *Session) Overflowed() bool {
	return s.buf.Overflowed()
}

// Finish detaches the edge handler and returns the captured pulses, or an
// empty Signal when fewer than the minimum were held. The mode moves to
// Analyzing; the radio stays in receive.
func (s *Session) Finish() pulse.Signal {
	s.detach()
	sig := s.buf.Snapshot()
	s.buf.Reset()
	if err := s.state.Transition(radio.Analyzing); err != nil {
		log.Printf("capture: %v", err)
	}
	if len(sig) < s.cfg.MinSamples {
		return nil
	}
	return sig
}

// Stop detaches, turns the receiver off and returns the session to Idle.
func (s *Session) Stop(r radio.Control) error {
	s.detach()
	s.buf.Reset()
	err := r.StopReceive()
	s.toIdle()
	if err != nil {
		return fmt.Errorf("stop receive: %w", err)
	}
	return nil
}

// Abort detaches and discards the capture.
func (s *Session) Abort() {
	s.detach()
	s.buf.Reset()
	if s.state.Mode() == radio.Receiving {
		s.toIdle()
	}
}

func (s *Session) detach() {
	if !s.attached {
		return
	}
	if err := s.src.Stop(); err != nil {
		log.Printf("capture: detach: %v", err)
	}
	s.attached = false
}

func (s *Session) toIdle() {
	if s.state.Mode() == radio.Idle {
		return
	}
	if err := s.state.Transition(radio.Idle); err != nil {
		log.Printf("capture: %v", err)
	}
}
