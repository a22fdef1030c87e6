package protocol

// Hyundai/Kia fobs share the BMW pair timing at a faster base rate. The 61 bit
// frame carries no checksum the receiver can verify.
var Hyundai = &Descriptor{
	Name:        "Hyundai",
	Kind:        Rolling,
	Encoding:    PWM,
	TeShort:     250,
	TeLong:      500,
	Delta:       100,
	MinBits:     61,
	MaxBits:     61,
	Preamble:    Pair{250, 250},
	MinPreamble: 15,
	TxPreamble:  20,
	Sync:        []Symbol{{High: true, Width: 500}, {High: false, Width: 500}},
	Zero:        Pair{250, 250},
	One:         Pair{500, 500},
	EndGap:      500 + 2*100,
	Tail:        250 * 20,
	Repeat:      3,
	Extract:     extractHyundai,
	Serialize:   serializeHyundai,
}

func extractHyundai(raw Bits) (Code, bool) {
	v := raw.Uint64()
	return Code{
		Serial:  uint32(v>>12) & 0x0FFFFFFF,
		Button:  uint8(v>>8) & 0x0F,
		Counter: uint32(v>>40) & 0xFFFF,
		Extra: map[string]uint64{
			"type":  v >> 56 & 0x1F,
			"check": v & 0xFF,
		},
	}, true
}

func serializeHyundai(c Code) (Bits, error) {
	if err := checkFields(c, 0x0FFFFFFF, 0x0F, 0xFFFF); err != nil {
		return Bits{}, err
	}
	v := (c.Extra["type"]&0x1F)<<56 |
		uint64(c.Counter&0xFFFF)<<40 |
		uint64(c.Serial&0x0FFFFFFF)<<12 |
		uint64(c.Button&0x0F)<<8 |
		c.Extra["check"]&0xFF
	return FromUint64(v, 61), nil
}
