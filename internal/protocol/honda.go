package protocol

// Honda fobs: short preamble, one long low sync, then 64 high/low pairs.
var Honda = &Descriptor{
	Name:        "Honda",
	Kind:        Rolling,
	Encoding:    PWM,
	TeShort:     432,
	TeLong:      864,
	Delta:       150,
	MinBits:     64,
	MaxBits:     64,
	Preamble:    Pair{432, 432},
	MinPreamble: 10,
	TxPreamble:  12,
	Sync:        []Symbol{{High: false, Width: 864, Delta: 300}},
	Zero:        Pair{432, 864},
	One:         Pair{864, 432},
	EndGap:      864 * 3,
	Tail:        864 * 10,
	Repeat:      3,
	Extract:     extractHonda,
	Serialize:   serializeHonda,
}

// Layout, first bit received first: sync byte, 32 bit serial, 16 bit
// counter, button byte.
func extractHonda(raw Bits) (Code, bool) {
	v := raw.Uint64()
	return Code{
		Serial:  uint32(v >> 24),
		Counter: uint32(v>>8) & 0xFFFF,
		Button:  uint8(v),
		Extra:   map[string]uint64{"sync": v >> 56},
	}, true
}

func serializeHonda(c Code) (Bits, error) {
	if err := checkFields(c, 0xFFFFFFFF, 0xFF, 0xFFFF); err != nil {
		return Bits{}, err
	}
	v := (c.Extra["sync"]&0xFF)<<56 |
		uint64(c.Serial)<<24 |
		uint64(c.Counter&0xFFFF)<<8 |
		uint64(c.Button)
	return FromUint64(v, 64), nil
}
