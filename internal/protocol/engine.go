package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Builtin returns the shipped descriptors in priority order. Longer and more
// specific frames come first so a shorter family cannot claim their prefix.
func Builtin() []*Descriptor {
	return []*Descriptor{
		CameAtomo,
		CameTwee,
		Came,
		NiceFlorS,
		NiceFlo,
		BMW,
		Hyundai,
		Honda,
		Peugeot,
		Citroen,
		FordV0,
		FiatV0,
		VW,
	}
}

// Engine is an ordered registry of descriptors. The first descriptor whose
// decoder completes a frame wins.
type Engine struct {
	list []*Descriptor
}

// NewEngine validates ds and registers them in order.
func NewEngine(ds ...*Descriptor) (*Engine, error) {
	e := &Engine{}
	for _, d := range ds {
		if err := e.Register(d); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Default returns an engine holding the builtin descriptors.
func Default() *Engine {
	e, err := NewEngine(Builtin()...)
	if err != nil {
		panic(err)
	}
	return e
}

// Register appends d at the lowest priority.
func (e *Engine) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("register: nil descriptor")
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if _, dup := e.Lookup(d.Name); dup {
		return fmt.Errorf("register: duplicate protocol %q", d.Name)
	}
	e.list = append(e.list, d)
	return nil
}

// Descriptors returns the registered descriptors in priority order.
func (e *Engine) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(e.list))
	copy(out, e.list)
	return out
}

// Lookup finds a descriptor by case-insensitive name.
func (e *Engine) Lookup(name string) (*Descriptor, bool) {
	for _, d := range e.list {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return nil, false
}

// Decode tries every descriptor in priority order.
func (e *Engine) Decode(pulses []pulse.Pulse) (Code, bool) {
	c, ok, _ := e.DecodeContext(context.Background(), pulses)
	return c, ok
}

// DecodeContext is Decode with cancellation checked between descriptors.
func (e *Engine) DecodeContext(ctx context.Context, pulses []pulse.Pulse) (Code, bool, error) {
	for _, d := range e.list {
		if err := ctx.Err(); err != nil {
			return Code{}, false, err
		}
		if c, ok := d.Decode(pulses); ok {
			return c, true, nil
		}
	}
	return Code{}, false, nil
}

// DecodeTrainContext is DecodeContext for one pause-delimited pulse train.
func (e *Engine) DecodeTrainContext(ctx context.Context, train []pulse.Pulse) (Code, bool, error) {
	for _, d := range e.list {
		if err := ctx.Err(); err != nil {
			return Code{}, false, err
		}
		if c, ok := d.DecodeTrain(train); ok {
			return c, true, nil
		}
	}
	return Code{}, false, nil
}

// Encode modulates c with the descriptor named by c.Protocol.
func (e *Engine) Encode(c Code) (pulse.Signal, error) {
	d, ok := e.Lookup(c.Protocol)
	if !ok {
		return nil, fmt.Errorf("encode: unknown protocol %q", c.Protocol)
	}
	return d.Encode(c)
}
