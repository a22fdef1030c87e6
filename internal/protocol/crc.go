package protocol

// CRC8 computes a non-reflected CRC-8, most significant bit first.
func CRC8(data []byte, poly, init byte) byte {
	crc := init
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC16 computes a non-reflected CRC-16, most significant bit first.
func CRC16(data []byte, poly, init uint16) uint16 {
	crc := init
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Checksum parameters used by the rolling-code families.
const (
	crc8Poly   = 0x31
	crc16Poly  = 0x1021
	crc16Init  = 0xFFFF
	checkCRC8  = "crc8"
	checkCRC16 = "crc16"
)

func parity8(b byte) byte {
	var p byte
	for b != 0 {
		p ^= b & 1
		b >>= 1
	}
	return p
}
