package protocol

// VW fobs: Manchester at 500µs after a five pulse sync. 80 bits: type byte,
// 64 bit encrypted key and a check byte whose high nibble is the button.
var VW = &Descriptor{
	Name:        "VW",
	Kind:        Rolling,
	Encoding:    Manchester,
	TeShort:     500,
	TeLong:      1000,
	Delta:       120,
	MinBits:     80,
	MaxBits:     80,
	Preamble:    Pair{500, 500},
	MinPreamble: 20,
	TxPreamble:  24,
	Sync: []Symbol{
		{High: true, Width: 1000},
		{High: false, Width: 500},
		{High: true, Width: 750},
		{High: false, Width: 750},
		{High: true, Width: 500},
	},
	StartBit:  true,
	EndGap:    4000,
	Tail:      8000,
	Repeat:    2,
	Extract:   extractVW,
	Serialize: serializeVW,
}

func extractVW(raw Bits) (Code, bool) {
	check := raw.Field(0, 8)
	return Code{
		Button: uint8(check >> 4),
		Extra: map[string]uint64{
			"type":  raw.Field(72, 8),
			"key":   raw.Field(8, 64),
			"check": check,
		},
	}, true
}

// serializeVW writes Button into the check byte's high nibble when set.
func serializeVW(c Code) (Bits, error) {
	if err := checkFields(c, 0, 0x0F, 0); err != nil {
		return Bits{}, err
	}
	check := c.Extra["check"] & 0xFF
	if c.Button != 0 {
		check = check&0x0F | uint64(c.Button)<<4
	}
	var raw Bits
	raw.Append(c.Extra["type"], 8)
	raw.Append(c.Extra["key"], 64)
	raw.Append(check, 8)
	return raw, nil
}
