package replay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/sweeney/rf-sniffer/internal/gpio"
	"github.com/sweeney/rf-sniffer/internal/radio"
)

// Clock is the transmit timebase.
type Clock interface {
	// Start marks offset zero.
	Start()
	// WaitUntil blocks until offset has elapsed since Start.
	WaitUntil(offset time.Duration)
}

// SpinClock busy-waits on the monotonic clock. Sleeping cannot hold
// microsecond edges; waiting against absolute offsets keeps per-pulse error
// from accumulating.
type SpinClock struct {
	t0 time.Time
}

func (c *SpinClock) Start() {
	c.t0 = time.Now()
}

func (c *SpinClock) WaitUntil(offset time.Duration) {
	for time.Since(c.t0) < offset {
	}
}

// Transmitter keys plans out on a radio and data pin.
type Transmitter struct {
	Radio radio.Control
	Pin   gpio.OutputPin
	State *radio.State

	// Clock defaults to a SpinClock.
	Clock Clock
	// CPU pins the transmit thread to one core; negative disables pinning.
	CPU int
}

// Transmit keys p with the default clock and no CPU pinning.
func Transmit(ctx context.Context, p Plan, r radio.Control, pin gpio.OutputPin, st *radio.State) error {
	t := &Transmitter{Radio: r, Pin: pin, State: st, CPU: -1}
	return t.Transmit(ctx, p)
}

// Transmit validates p, moves the session to Transmitting, keys the radio
// and drives the pin through every width. The pin always ends low; the
// radio always ends idle unless another session owns it.
func (t *Transmitter) Transmit(ctx context.Context, p Plan) (err error) {
	if verr := p.Validate(); verr != nil {
		t.Pin.Set(false)
		if t.State.Mode() == radio.Idle {
			t.Radio.Idle()
		}
		return verr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if terr := t.State.Transition(radio.Transmitting); terr != nil {
		t.Pin.Set(false)
		return fmt.Errorf("%w: %v", ErrRadioBusy, terr)
	}

	defer func() {
		var cleanup []error
		if perr := t.Pin.Set(false); perr != nil {
			cleanup = append(cleanup, fmt.Errorf("drive pin low: %w", perr))
		}
		if rerr := t.Radio.Idle(); rerr != nil {
			cleanup = append(cleanup, fmt.Errorf("idle radio: %w", rerr))
		}
		if serr := t.State.Transition(radio.Idle); serr != nil {
			cleanup = append(cleanup, serr)
		}
		if len(cleanup) > 0 {
			log.Printf("replay: cleanup: %v", cleanup)
			if err == nil {
				err = errors.Join(cleanup...)
			}
		}
	}()

	if err := t.Radio.StartTransmit(t.State.Params()); err != nil {
		return fmt.Errorf("start transmit: %w", err)
	}

	if t.CPU >= 0 {
		runtime.LockOSThread()
		restore, perr := pinThread(t.CPU)
		if perr != nil {
			log.Printf("replay: pin thread to cpu %d: %v", t.CPU, perr)
			runtime.UnlockOSThread()
		} else {
			defer func() {
				// A thread still pinned stays locked and exits with this goroutine.
				if rerr := restore(); rerr != nil {
					log.Printf("replay: restore cpu affinity: %v", rerr)
					return
				}
				runtime.UnlockOSThread()
			}()
		}
	}

	clk := t.Clock
	if clk == nil {
		clk = &SpinClock{}
	}

	level := p.StartHigh
	var offset time.Duration
	clk.Start()
	for i, w := range p.Widths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transmit aborted at pulse %d: %w", i, err)
		}
		if err := t.Pin.Set(level); err != nil {
			return fmt.Errorf("set pin: %w", err)
		}
		offset += time.Duration(w) * time.Microsecond
		clk.WaitUntil(offset)
		level = !level
	}
	return nil
}
