package protocol

import (
	"reflect"
	"testing"
)

// Each protocol must decode its own modulation back to the same fields.
func TestRoundTrip(t *testing.T) {
	fordKey1, fordKey2 := uint64(0x0123456789ABCDEF), uint16(0xBEEF)
	fordSerial, fordButton, fordCount := fordFields(fordKey1, fordKey2)

	tests := []struct {
		d    *Descriptor
		code Code
	}{
		{Came, Code{Data: FromUint64(0xA5A5A5, 24)}},
		{Came, Code{Data: FromUint64(0xABC, 12)}},
		{CameTwee, Code{Data: FromUint64(0x123456789ABCD, 54)}},
		{CameAtomo, Code{Data: FromUint64(0x2123456789ABCDEF, 62)}},
		{NiceFlo, Code{Data: FromUint64(0x5A5, 12)}},
		{NiceFlorS, Code{Data: FromUint64(0xF0123456789AB, 52)}},
		{BMW, Code{Serial: 0x1234567, Button: ButtonUnlock, Counter: 0xBEEF, Checksum: "crc8",
			Extra: map[string]uint64{"type": 0x5A}}},
		{Hyundai, Code{Serial: 0x0ABCDEF, Button: ButtonLock, Counter: 0x1234,
			Extra: map[string]uint64{"type": 0x15, "check": 0x77}}},
		{Honda, Code{Serial: 0xDEADBEEF, Button: ButtonTrunk, Counter: 0x4321,
			Extra: map[string]uint64{"sync": 0xA5}}},
		{Peugeot, Code{Serial: 0x0ABCDEF, Button: ButtonUnlock,
			Extra: map[string]uint64{"hop": 0x12345678, "status": 2}}},
		{Citroen, Code{Serial: 0x0FEDCBA, Button: ButtonPanic,
			Extra: map[string]uint64{"hop": 0x87654321, "status": 1}}},
		{FordV0, Code{Serial: fordSerial, Button: fordButton, Counter: fordCount,
			Extra: map[string]uint64{"key1": fordKey1, "key2": uint64(fordKey2)}}},
		{FiatV0, Code{Serial: 0xCAFEBABE,
			Extra: map[string]uint64{"hop": 0x12345678, "end": 0x55}}},
		{VW, Code{Button: 2,
			Extra: map[string]uint64{"type": 0xC0, "key": 0x0123456789ABCDEF, "check": 0x2F}}},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name, func(t *testing.T) {
			raw, err := tt.d.Serialize(tt.code)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			sig, err := tt.d.Encode(tt.code)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, ok := tt.d.Decode(sig)
			if !ok {
				t.Fatalf("no decode of %v", sig)
			}
			if got.Protocol != tt.d.Name || got.Kind != tt.d.Kind {
				t.Errorf("identity: got %s/%s", got.Protocol, got.Kind)
			}
			if got.Data != raw {
				t.Errorf("Data: got %s (%d bits), want %s (%d bits)", got.Data, got.Data.Len, raw, raw.Len)
			}
			if got.BitCount != raw.Len {
				t.Errorf("BitCount: got %d, want %d", got.BitCount, raw.Len)
			}
			if got.Serial != tt.code.Serial || got.Button != tt.code.Button || got.Counter != tt.code.Counter {
				t.Errorf("fields: got serial=0x%X btn=%d cnt=0x%X, want serial=0x%X btn=%d cnt=0x%X",
					got.Serial, got.Button, got.Counter, tt.code.Serial, tt.code.Button, tt.code.Counter)
			}
			if got.Checksum != tt.code.Checksum {
				t.Errorf("Checksum: got %q, want %q", got.Checksum, tt.code.Checksum)
			}
			if tt.code.Extra != nil && !reflect.DeepEqual(got.Extra, tt.code.Extra) {
				t.Errorf("Extra: got %v, want %v", got.Extra, tt.code.Extra)
			}
		})
	}
}

func TestBMWRejectsBadChecksum(t *testing.T) {
	raw, err := serializeBMW(Code{Serial: 0x1234567, Button: ButtonLock, Counter: 7})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	raw.Lo ^= 0x01
	if c, ok := BMW.Decode(BMW.Modulate(raw, 1)); ok {
		t.Errorf("corrupt frame decoded as %s", c)
	}
}

func TestBMWCRC16Frame(t *testing.T) {
	v := uint64(0x0102030405060000)
	b := FromUint64(v, 64).Bytes()
	v |= uint64(bmwCRC16(b))
	raw := FromUint64(v, 64)
	c, ok := BMW.Decode(BMW.Modulate(raw, 1))
	if !ok {
		t.Fatal("expected a decode")
	}
	// A crc16 frame may also satisfy crc8 by chance; only check it validated.
	if c.Checksum == "" {
		t.Error("missing checksum name")
	}
	if c.Checksum == "crc16" {
		again, err := serializeBMW(c)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if again != raw {
			t.Errorf("re-seal: got %s, want %s", again, raw)
		}
	}
}

func TestPeugeotRequiresMarker(t *testing.T) {
	raw, err := serializePeugeot(Code{Serial: 1, Extra: map[string]uint64{"hop": 2}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	// The marker is sent first; clearing the first bit breaks it.
	raw.SetField(raw.Len-1, 1, 0)
	if _, ok := extractPeugeot(raw); ok {
		t.Error("frame without marker accepted")
	}
}

// Codes built only from serial, button and counter must come back intact.
func TestFieldsOnlyRoundTrip(t *testing.T) {
	tests := []struct {
		d    *Descriptor
		code Code
	}{
		{FordV0, Code{Serial: 0x1234, Button: ButtonLock, Counter: 0x55}},
		{FordV0, Code{Serial: 0xDEADBEEF, Button: 0x0F, Counter: 0xFFFFF,
			Extra: map[string]uint64{"key2": 0x8000}}},
		{VW, Code{Button: ButtonLock}},
		{Hyundai, Code{Serial: 0x1234, Button: ButtonLock, Counter: 0x55}},
		{Honda, Code{Serial: 0x1234, Button: ButtonLock, Counter: 0x55}},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name, func(t *testing.T) {
			sig, err := tt.d.Encode(tt.code)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, ok := tt.d.Decode(sig)
			if !ok {
				t.Fatal("no decode")
			}
			if got.Serial != tt.code.Serial || got.Button != tt.code.Button || got.Counter != tt.code.Counter {
				t.Errorf("got serial=0x%X btn=%d cnt=0x%X, want serial=0x%X btn=%d cnt=0x%X",
					got.Serial, got.Button, got.Counter, tt.code.Serial, tt.code.Button, tt.code.Counter)
			}
		})
	}
}

func TestSerializeRejectsUnrepresentableFields(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
		code Code
	}{
		{"vw serial", VW, Code{Serial: 0x1234}},
		{"vw counter", VW, Code{Counter: 1}},
		{"vw button", VW, Code{Button: 0x10}},
		{"ford button", FordV0, Code{Button: 0x10}},
		{"ford counter", FordV0, Code{Counter: 0x100000}},
		{"ford key1 mismatch", FordV0, Code{Serial: 1, Extra: map[string]uint64{"key1": 0x0123456789ABCDEF}}},
		{"fiat button", FiatV0, Code{Serial: 1, Button: ButtonLock}},
		{"citroen counter", Citroen, Code{Serial: 1, Counter: 1}},
		{"peugeot serial", Peugeot, Code{Serial: 0x10000000}},
		{"bmw serial", BMW, Code{Serial: 0x10000000}},
		{"hyundai counter", Hyundai, Code{Counter: 0x10000}},
		{"honda counter", Honda, Code{Counter: 0x10000}},
		{"came serial", Came, Code{Data: FromUint64(0xABC, 12), Serial: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.d.Encode(tt.code); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVWButtonSetsCheckNibble(t *testing.T) {
	raw, err := serializeVW(Code{Button: ButtonTrunk, Extra: map[string]uint64{"check": 0x2F}})
	if err != nil {
		t.Fatalf("serializeVW: %v", err)
	}
	if got := raw.Field(0, 8); got != 0x4F {
		t.Errorf("check: got 0x%X, want 0x4F", got)
	}
}
