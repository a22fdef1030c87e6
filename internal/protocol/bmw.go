package protocol

import "errors"

// BMW key fobs: 64 bit frames of equal-width pairs after a short preamble.
// The last byte is a CRC-8 over the first seven; older fobs carry a CRC-16
// over the first six bytes instead.
var BMW = &Descriptor{
	Name:        "BMW",
	Kind:        Rolling,
	Encoding:    PWM,
	TeShort:     350,
	TeLong:      700,
	Delta:       120,
	MinBits:     64,
	MaxBits:     64,
	Preamble:    Pair{350, 350},
	MinPreamble: 15,
	TxPreamble:  20,
	Sync:        []Symbol{{High: true, Width: 700}, {High: false, Width: 700}},
	Zero:        Pair{350, 350},
	One:         Pair{700, 700},
	EndGap:      700 + 2*120,
	Tail:        350 * 20,
	Repeat:      3,
	Extract:     extractBMW,
	Serialize:   serializeBMW,
}

func bmwCRC16(b []byte) uint16 {
	return CRC16(b[:6], crc16Poly, crc16Init)
}

func extractBMW(raw Bits) (Code, bool) {
	b := raw.Bytes()
	if len(b) != 8 {
		return Code{}, false
	}

	var check string
	switch {
	case CRC8(b[:7], crc8Poly, 0) == b[7]:
		check = checkCRC8
	case bmwCRC16(b) == uint16(b[6])<<8|uint16(b[7]):
		check = checkCRC16
	default:
		return Code{}, false
	}

	v := raw.Uint64()
	return Code{
		Serial:   uint32(v>>12) & 0x0FFFFFFF,
		Button:   uint8(v>>8) & 0x0F,
		Counter:  uint32(v>>40) & 0xFFFF,
		Checksum: check,
		Extra:    map[string]uint64{"type": v >> 56},
	}, true
}

// serializeBMW rebuilds a CRC-8 frame from fields. CRC-16 frames overlap
// the field layout, so they are re-sealed from their raw data.
func serializeBMW(c Code) (Bits, error) {
	if c.Checksum == checkCRC16 {
		if c.Data.Len != 64 {
			return Bits{}, errors.New("crc16 frame needs 64 bits of data")
		}
		v := c.Data.Uint64()&^0xFFFF | uint64(bmwCRC16(c.Data.Bytes()))
		return FromUint64(v, 64), nil
	}

	if err := checkFields(c, 0x0FFFFFFF, 0x0F, 0xFFFF); err != nil {
		return Bits{}, err
	}
	v := (c.Extra["type"]&0xFF)<<56 |
		uint64(c.Counter&0xFFFF)<<40 |
		uint64(c.Serial&0x0FFFFFFF)<<12 |
		uint64(c.Button&0x0F)<<8
	b := FromUint64(v, 64).Bytes()
	v |= uint64(CRC8(b[:7], crc8Poly, 0))
	return FromUint64(v, 64), nil
}
