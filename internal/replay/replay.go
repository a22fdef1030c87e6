// Package replay turns captured signals and decoded codes into transmit plans
// and keys them out through the radio.
package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Plan limits, in microseconds.
const (
	// MaxCapturedPulse is the longest pulse accepted from a capture; anything
	// longer means the capture spans separate transmissions.
	MaxCapturedPulse = 20000
	// MaxTransmitPulse is the longest pulse Transmit will key.
	MaxTransmitPulse = 100000
)

var (
	ErrEmptyPlan    = errors.New("replay: empty plan")
	ErrZeroWidth    = errors.New("replay: zero-width pulse")
	ErrPulseTooLong = errors.New("replay: pulse too long")
	ErrRadioBusy    = errors.New("replay: radio busy")
)

// Plan is a sequence of alternating-level widths in microseconds.
type Plan struct {
	Widths    []uint32
	StartHigh bool
}

// Len is the number of pulses.
func (p Plan) Len() int {
	return len(p.Widths)
}

// Duration is the total keyed time.
func (p Plan) Duration() time.Duration {
	var total time.Duration
	for _, w := range p.Widths {
		total += time.Duration(w) * time.Microsecond
	}
	return total
}

// Signal renders the plan back into signed pulses.
func (p Plan) Signal() pulse.Signal {
	out := make(pulse.Signal, len(p.Widths))
	level := p.StartHigh
	for i, w := range p.Widths {
		out[i] = pulse.Of(level, w)
		level = !level
	}
	return out
}

// Validate checks the plan can be keyed.
func (p Plan) Validate() error {
	if len(p.Widths) == 0 {
		return ErrEmptyPlan
	}
	for i, w := range p.Widths {
		if w == 0 {
			return fmt.Errorf("pulse %d: %w", i, ErrZeroWidth)
		}
		if w > MaxTransmitPulse {
			return fmt.Errorf("pulse %d of %dµs: %w", i, w, ErrPulseTooLong)
		}
	}
	return nil
}

// FromSignal builds a plan from a captured signal. A pulse longer than
// MaxCapturedPulse yields an empty plan.
func FromSignal(sig pulse.Signal) Plan {
	sig = pulse.MergeAdjacentSameSign(sig)
	if len(sig) == 0 {
		return Plan{}
	}
	p := Plan{Widths: make([]uint32, len(sig)), StartHigh: sig[0].High()}
	for i, s := range sig {
		if s.Width() > MaxCapturedPulse {
			return Plan{}
		}
		p.Widths[i] = s.Width()
	}
	return p
}

// FromCode synthesizes the code's frames with the descriptor the engine
// holds for code.Protocol.
func FromCode(e *protocol.Engine, code protocol.Code) (Plan, error) {
	sig, err := e.Encode(code)
	if err != nil {
		return Plan{}, err
	}
	if len(sig) == 0 {
		return Plan{}, ErrEmptyPlan
	}
	p := Plan{Widths: make([]uint32, len(sig)), StartHigh: sig[0].High()}
	for i, s := range sig {
		p.Widths[i] = s.Width()
	}
	return p, nil
}
