package protocol

import "errors"

// FordV0 fobs: inverted Manchester, 80 bits. The first 64 bits are key1 and
// the last 16 key2, both sent complemented. Serial, button and counter are
// recovered by un-xoring key1 with a byte chosen by the parity of key2.
var FordV0 = &Descriptor{
	Name:        "FordV0",
	Kind:        Rolling,
	Encoding:    Manchester,
	TeShort:     250,
	TeLong:      500,
	Delta:       100,
	MinBits:     80,
	MaxBits:     80,
	Preamble:    Pair{500, 500},
	MinPreamble: 4,
	TxPreamble:  6,
	Sync:        []Symbol{{High: true, Width: 250}, {High: false, Width: 3500, Delta: 300}},
	Inverted:    true,
	StartBit:    true,
	EndGap:      2000,
	Tail:        4000,
	Repeat:      2,
	Extract:     extractFord,
	Serialize:   serializeFord,
}

func extractFord(raw Bits) (Code, bool) {
	key1 := ^raw.Field(16, 64)
	key2 := uint16(^raw.Field(0, 16))
	serial, button, count := fordFields(key1, key2)
	return Code{
		Serial:  serial,
		Button:  button,
		Counter: count,
		Extra:   map[string]uint64{"key1": key1, "key2": uint64(key2)},
	}, true
}

// serializeFord builds key1 from Serial, Button and Counter when any is set.
// A key1 given alongside them must carry the same fields.
func serializeFord(c Code) (Bits, error) {
	if err := checkFields(c, 0xFFFFFFFF, 0x0F, 0xFFFFF); err != nil {
		return Bits{}, err
	}
	key1, given := c.Extra["key1"]
	key2 := uint16(c.Extra["key2"])
	if c.Serial != 0 || c.Button != 0 || c.Counter != 0 {
		built := fordKey1(c.Serial, c.Button, c.Counter, key2, byte(key1>>56))
		if given && built != key1 {
			return Bits{}, errors.New("key1 does not match serial, button and counter")
		}
		key1 = built
	}
	var raw Bits
	raw.Append(^key1, 64)
	raw.Append(uint64(^key2), 16)
	return raw, nil
}

func fordFields(key1 uint64, key2 uint16) (serial uint32, button uint8, count uint32) {
	var buf [9]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(key1 >> uint(56-8*i))
	}
	buf[8] = byte(key2 >> 8)

	var par byte
	if buf[8] != 0 {
		par = parity8(buf[8])
	}
	xor, limit := buf[6], 6
	if par != 0 {
		xor, limit = buf[7], 7
	}
	for i := 1; i < limit; i++ {
		buf[i] ^= xor
	}
	if par == 0 {
		buf[7] ^= xor
	}

	b7 := buf[7]
	buf[7] = b7&0xAA | buf[6]&0x55
	buf[6] = buf[6]&0xAA | b7&0x55

	serial = uint32(buf[1])<<24 | uint32(buf[2])<<16 | uint32(buf[3])<<8 | uint32(buf[4])
	button = buf[5] >> 4
	count = uint32(buf[5]&0x0F)<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	return serial, button, count
}

// fordKey1 is the inverse of fordFields for a given key2. top is the first
// byte of key1, which carries no field.
func fordKey1(serial uint32, button uint8, count uint32, key2 uint16, top byte) uint64 {
	buf := [8]byte{
		top,
		byte(serial >> 24), byte(serial >> 16), byte(serial >> 8), byte(serial),
		button<<4 | byte(count>>16)&0x0F,
	}
	c6, c7 := byte(count>>8), byte(count)
	b6 := c6&0xAA | c7&0x55
	b7 := c7&0xAA | c6&0x55

	var par byte
	if hi := byte(key2 >> 8); hi != 0 {
		par = parity8(hi)
	}
	var xor byte
	if par == 0 {
		xor = b6
		buf[6], buf[7] = b6, b7^xor
	} else {
		xor = b7
		buf[6], buf[7] = b6^xor, b7
	}
	for i := 1; i < 6; i++ {
		buf[i] ^= xor
	}

	var key1 uint64
	for _, b := range buf {
		key1 = key1<<8 | uint64(b)
	}
	return key1
}
