package radio

import (
	"context"
	"errors"
	"testing"
)

func TestPresetTable(t *testing.T) {
	want := []string{"AM650", "AM270", "FM238", "FM476", "FM95", "FM15k", "FSK12k", "FSK25k", "FSK31k", "PAGER", "HND1", "HND2"}
	got := Presets()
	if len(got) != len(want) {
		t.Fatalf("got %d presets, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("preset %d: got %s, want %s", i, p.Name, want[i])
		}
	}

	p, ok := LookupPreset("am650")
	if !ok {
		t.Fatal("am650 not found")
	}
	if p.Modulation != OOK || p.RxBandwidth != 650 || p.DataRate != 3.79372 {
		t.Errorf("AM650: got %+v", p)
	}
	p, _ = LookupPreset("FM238")
	if p.Modulation != FSK || p.Deviation != 2.380371 {
		t.Errorf("FM238: got %+v", p)
	}
	if _, ok := LookupPreset("AM9000"); ok {
		t.Error("unknown preset found")
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		p     Params
		valid bool
	}{
		{Params{433.92, "AM650"}, true},
		{Params{315, "FM238"}, true},
		{Params{868.35, "AM270"}, true},
		{Params{100, "AM650"}, false},
		{Params{370, "AM650"}, false},
		{Params{433.92, "nope"}, false},
	}
	for _, tt := range tests {
		err := tt.p.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("%s: got %v, want valid=%v", tt.p, err, tt.valid)
		}
	}
}

func TestCheckBoard(t *testing.T) {
	if err := checkBoard(433.92, Params{433.92, "AM650"}); err != nil {
		t.Errorf("matching board: %v", err)
	}
	if err := checkBoard(433.92, Params{315, "AM650"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("wrong frequency: got %v, want ErrUnsupported", err)
	}
	if err := checkBoard(433.92, Params{433.92, "FM238"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("FSK preset: got %v, want ErrUnsupported", err)
	}
}

func TestScanPicksStrongest(t *testing.T) {
	f := NewFake()
	f.RSSI = map[float64]int16{
		315.000: -80,
		433.920: -60,
		868.350: -45,
		915.000: -70,
	}
	res, err := Scan(context.Background(), f, DefaultPreset, ScanFrequencies, 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Readings) != len(ScanFrequencies) {
		t.Errorf("got %d readings, want %d", len(res.Readings), len(ScanFrequencies))
	}
	if !res.Found || res.Best.FrequencyMHz != 868.35 || res.Best.RSSI != -45 {
		t.Errorf("got %+v, want 868.35 at -45", res.Best)
	}
	if f.Keyed() {
		t.Error("radio left keyed after scan")
	}
}

func TestScanBelowThreshold(t *testing.T) {
	f := NewFake()
	f.RSSI = map[float64]int16{433.920: -75, 315.000: -90}
	res, err := Scan(context.Background(), f, DefaultPreset, ScanFrequencies, 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Found {
		t.Errorf("found %+v, want nothing above -75", res.Best)
	}
}

func TestScanErrors(t *testing.T) {
	f := NewFake()
	f.Errors = map[string]error{"ReadRSSI": ErrUnsupported}
	if _, err := Scan(context.Background(), f, DefaultPreset, ScanFrequencies, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
	if f.Keyed() {
		t.Error("radio left keyed after failed scan")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, NewFake(), DefaultPreset, ScanFrequencies, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

// fixedRadio is a Fake that declares it has no RSSI readout.
type fixedRadio struct {
	*Fake
}

func (fixedRadio) CanReadRSSI() bool { return false }

func TestScanWithoutRSSI(t *testing.T) {
	f := NewFake()
	_, err := Scan(context.Background(), fixedRadio{f}, DefaultPreset, ScanFrequencies, 0)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("radio touched: %v", f.Calls)
	}

	var m *Module
	if m.CanReadRSSI() {
		t.Error("module should report no rssi readout")
	}
}

func TestFakeRecordsCalls(t *testing.T) {
	f := NewFake()
	f.StartReceive(Params{433.92, "AM650"})
	f.Idle()
	f.StartTransmit(Params{433.92, "AM650"})
	f.Idle()
	got := f.CallNames()
	want := []string{"StartReceive", "Idle", "StartTransmit", "Idle"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if f.Calls[0] != "StartReceive 433.920 MHz AM650" {
		t.Errorf("got %q", f.Calls[0])
	}
}
