// Package protocol decodes classified pulse sequences into remote-control codes
// and serializes codes back into pulse sequences.
//
// Every protocol is a Descriptor: timings, header rule, bit encoding and a pair
// of closures mapping between raw bits and a Code. One generic state machine
// (PWM pairs or Manchester) drives all of them.
package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Kind separates fixed codes from rolling codes.
type Kind string

const (
	Fixed   Kind = "fixed"
	Rolling Kind = "rolling"
)

// Code is a successfully decoded frame.
type Code struct {
	Protocol string
	Kind     Kind
	BitCount int
	Data     Bits

	Serial  uint32
	Button  uint8
	Counter uint32

	// Checksum names the check that validated the frame ("crc8", "crc16"),
	// empty when the protocol carries none.
	Checksum string

	// Extra holds protocol-specific fields such as hop, key2 or type.
	Extra map[string]uint64
}

// Value returns the low 64 bits of the raw data.
func (c Code) Value() uint64 {
	return c.Data.Uint64()
}

// String returns a one-line summary suitable for a display sink.
func (c Code) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %dbit 0x%s", c.Protocol, c.BitCount, c.Data)
	if c.Kind == Rolling {
		if c.Serial != 0 {
			fmt.Fprintf(&b, " serial=0x%X", c.Serial)
		}
		if c.Button != 0 {
			fmt.Fprintf(&b, " btn=%s", ButtonName(c.Button))
		}
		if c.Counter != 0 {
			fmt.Fprintf(&b, " cnt=0x%X", c.Counter)
		}
	}
	if c.Checksum != "" {
		fmt.Fprintf(&b, " %s=ok", c.Checksum)
	}
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=0x%X", k, c.Extra[k])
	}
	return b.String()
}

// checkFields rejects a Serial, Button or Counter the frame layout cannot
// carry. A zero limit means the layout has no such field.
func checkFields(c Code, serial, button, counter uint32) error {
	fields := []struct {
		name  string
		v     uint32
		limit uint32
	}{
		{"serial", c.Serial, serial},
		{"button", uint32(c.Button), button},
		{"counter", c.Counter, counter},
	}
	for _, f := range fields {
		switch {
		case f.v <= f.limit:
		case f.limit == 0:
			return fmt.Errorf("%s is not part of the frame", f.name)
		default:
			return fmt.Errorf("%s 0x%X exceeds 0x%X", f.name, f.v, f.limit)
		}
	}
	return nil
}

// Key fob button codes shared by the car families.
const (
	ButtonUnlock = 1
	ButtonLock   = 2
	ButtonTrunk  = 4
	ButtonPanic  = 8
)

// ButtonName maps a button code to its label.
func ButtonName(b uint8) string {
	switch b {
	case ButtonUnlock:
		return "UNLOCK"
	case ButtonLock:
		return "LOCK"
	case ButtonTrunk:
		return "TRUNK"
	case ButtonPanic:
		return "PANIC"
	}
	return fmt.Sprintf("0x%X", b)
}
