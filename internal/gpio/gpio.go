// Package gpio provides the radio data lines with hardware abstraction.
// Receivers deliver edges through an EdgeSource; the transmitter is keyed
// through an OutputPin. The real implementations use the Linux GPIO character
// device; a serial source accepts durations from an external capture MCU.
package gpio

import "github.com/sweeney/rf-sniffer/internal/pulse"

// EdgeHandler receives one edge. micros is a monotonic timestamp in
// microseconds and high is the line level after the edge. It is called from
// the source's own goroutine and must not block.
type EdgeHandler func(micros uint64, high bool)

// EdgeSource delivers receiver data-line edges.
type EdgeSource interface {
	// Start attaches h. Edges are delivered until Stop.
	Start(h EdgeHandler) error

	// Stop detaches the handler. No edge is delivered after Stop returns.
	Stop() error

	// Close releases resources.
	Close() error
}

// OutputPin drives the transmitter data line.
type OutputPin interface {
	Set(high bool) error
	Close() error
}

// Default lines (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	PinRX       = 27 // receiver data out
	PinTX       = 17 // transmitter data in
	PinRXEnable = 22
	PinTXEnable = 23
)

// synth turns a pulse stream into the edges that would have produced it.
type synth struct {
	h      EdgeHandler
	now    uint64
	primed bool
}

func (s *synth) pulse(p pulse.Pulse) {
	if p == 0 {
		return
	}
	if !s.primed {
		s.h(s.now, p.High())
		s.primed = true
	}
	s.now += uint64(p.Width())
	s.h(s.now, !p.High())
}
