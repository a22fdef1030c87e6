package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/rf-sniffer/internal/config"
	"github.com/sweeney/rf-sniffer/internal/gpio"
	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
	"github.com/sweeney/rf-sniffer/internal/radio"
	"github.com/sweeney/rf-sniffer/internal/store"
)

// testEnv wires the CLI to fakes and a temporary store. It returns the
// config file path and the fake hardware.
func testEnv(t *testing.T) (*env, string, *rig) {
	t.Helper()
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	cfgPath := filepath.Join(dir, "rf-sniffer.yaml")
	if err := os.WriteFile(cfgPath, []byte("store:\n  dir: "+storeDir+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	hw := &rig{
		radio:  radio.NewFake(),
		source: &gpio.FakeEdgeSource{},
		pin:    &gpio.FakePin{},
	}
	e := &env{
		openRig:   func(*config.Config) (*rig, error) { return hw, nil },
		openStore: store.Open,
		engine:    protocol.Default(),
	}
	return e, cfgPath, hw
}

// runCLI runs the app with args and returns its output.
func runCLI(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp(e)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"rf-sniffer"}, args...))
	return out.String(), err
}

// saveCame stores one decoded Came capture in the configured store.
func saveCame(t *testing.T, cfgPath string) string {
	t.Helper()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	code := protocol.Code{Protocol: "Came", Kind: protocol.Fixed, BitCount: 12, Data: protocol.FromUint64(0xABC, 12)}
	id, err := st.Save(cameSignal(t), store.Metadata{
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Params:    cfg.Params(),
		Code:      &code,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return id
}

func TestProtocolsCommand(t *testing.T) {
	e, _, _ := testEnv(t)
	out, err := runCLI(t, e, "protocols")
	if err != nil {
		t.Fatalf("protocols: %v", err)
	}
	var got []ProtocolOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if len(got) != len(protocol.Builtin()) {
		t.Fatalf("got %d protocols, want %d", len(got), len(protocol.Builtin()))
	}
	found := false
	for _, p := range got {
		if p.Name == "Came" {
			found = true
			if p.TeShort != 320 || p.TeLong != 640 || p.Encoding != "pwm" {
				t.Errorf("Came: got %+v", p)
			}
		}
	}
	if !found {
		t.Error("Came not listed")
	}
}

func TestDecodePulses(t *testing.T) {
	e, _, _ := testEnv(t)
	out, err := runCLI(t, e, "decode", "--pulses="+cameSignal(t).String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got DecodeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.Outcome != "DECODED" {
		t.Fatalf("outcome: got %s, want DECODED", got.Outcome)
	}
	if got.Code == nil || got.Code.Protocol != "Came" || got.Code.Data != "0xABC" {
		t.Errorf("code: got %+v, want Came 0xABC", got.Code)
	}
	if got.Message != "decoded as Came" {
		t.Errorf("message: got %q", got.Message)
	}
}

func TestDecodeBadPulses(t *testing.T) {
	e, _, _ := testEnv(t)
	if _, err := runCLI(t, e, "decode", "--pulses=320 abc"); err == nil {
		t.Error("expected error for malformed pulses")
	}
}

func TestDecodeLatestCapture(t *testing.T) {
	e, cfgPath, _ := testEnv(t)
	saveCame(t, cfgPath)

	out, err := runCLI(t, e, "--config", cfgPath, "decode")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got DecodeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.Code == nil || got.Code.Protocol != "Came" {
		t.Errorf("code: got %+v, want Came", got.Code)
	}
}

func TestDecodeEmptyStore(t *testing.T) {
	e, cfgPath, _ := testEnv(t)
	_, err := runCLI(t, e, "--config", cfgPath, "decode")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v, want not found", err)
	}
}

func TestCapturesCommand(t *testing.T) {
	e, cfgPath, _ := testEnv(t)
	id := saveCame(t, cfgPath)

	out, err := runCLI(t, e, "--config", cfgPath, "captures")
	if err != nil {
		t.Fatalf("captures: %v", err)
	}
	var got []CaptureOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if len(got) != 1 {
		t.Fatalf("got %d captures, want 1", len(got))
	}
	if got[0].ID != id {
		t.Errorf("id: got %s, want %s", got[0].ID, id)
	}
	if got[0].Code == nil || got[0].Code.Summary != "Came 12bit 0xABC" {
		t.Errorf("code: got %+v", got[0].Code)
	}
	if got[0].FrequencyMHz != radio.DefaultFrequency {
		t.Errorf("frequency: got %v, want %v", got[0].FrequencyMHz, radio.DefaultFrequency)
	}
}

func TestSendDryRun(t *testing.T) {
	e, _, hw := testEnv(t)
	out, err := runCLI(t, e, "send", "--protocol", "Came", "--data", "ABC", "--bits", "12", "--dry-run")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var got TransmitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.Result != "dry run" || got.Source != "Came" {
		t.Errorf("got %+v", got)
	}
	if !strings.HasPrefix(got.RawData, "RAW_Data: -15040 320 ") {
		t.Errorf("raw data: got %q", got.RawData)
	}
	if got.Pulses == 0 || got.DurationUS == 0 {
		t.Errorf("empty plan: %+v", got)
	}
	if calls := hw.radio.(*radio.Fake).Calls; len(calls) != 0 {
		t.Errorf("dry run touched the radio: %v", calls)
	}
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown protocol", []string{"send", "--protocol", "Nope", "--data", "1", "--dry-run"}},
		{"fixed without data", []string{"send", "--protocol", "Came", "--dry-run"}},
		{"too many bits", []string{"send", "--protocol", "Came", "--data", "ABC", "--bits", "64", "--dry-run"}},
		{"field on fixed code", []string{"send", "--protocol", "Came", "--data", "ABC", "--bits", "12", "--serial", "1", "--dry-run"}},
		{"serial not in frame", []string{"send", "--protocol", "VW", "--serial", "5", "--dry-run"}},
		{"button too wide", []string{"send", "--protocol", "FordV0", "--button", "300", "--dry-run"}},
		{"data with fields", []string{"send", "--protocol", "Honda", "--data", "A5DEADBEEF432104", "--serial", "1", "--dry-run"}},
		{"bad rolling frame", []string{"send", "--protocol", "BMW", "--data", "0102030405060708", "--dry-run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := testEnv(t)
			if _, err := runCLI(t, e, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSendRollingFieldsDryRun(t *testing.T) {
	e, _, _ := testEnv(t)
	out, err := runCLI(t, e, "send", "--protocol", "FordV0",
		"--serial", "4660", "--button", "2", "--counter", "85", "--dry-run")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var got TransmitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	sig, err := pulse.Parse(got.RawData)
	if err != nil {
		t.Fatalf("parse raw data: %v", err)
	}
	code, ok := protocol.FordV0.Decode(sig)
	if !ok {
		t.Fatal("sent plan does not decode as FordV0")
	}
	if code.Serial != 4660 || code.Button != 2 || code.Counter != 85 {
		t.Errorf("got serial=%d btn=%d cnt=%d, want 4660/2/85", code.Serial, code.Button, code.Counter)
	}
}

func TestReplayStoredCapture(t *testing.T) {
	e, cfgPath, hw := testEnv(t)
	id := saveCame(t, cfgPath)

	out, err := runCLI(t, e, "--config", cfgPath, "replay", "--id", id)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	var got TransmitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.Result != "transmission complete" || got.Source != "Came" {
		t.Errorf("got %+v", got)
	}

	fr := hw.radio.(*radio.Fake)
	names := fr.CallNames()
	if len(names) < 2 || names[0] != "StartTransmit" || names[len(names)-1] != "Idle" {
		t.Errorf("radio calls: got %v", names)
	}
	pin := hw.pin.(*gpio.FakePin)
	if pin.Level {
		t.Error("pin left high")
	}
	if len(pin.Changes) < got.Pulses {
		t.Errorf("pin changes: got %d, want at least %d", len(pin.Changes), got.Pulses)
	}
}

func TestReplayRawDryRun(t *testing.T) {
	e, cfgPath, _ := testEnv(t)
	saveCame(t, cfgPath)

	out, err := runCLI(t, e, "--config", cfgPath, "replay", "--raw", "--dry-run")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	var got TransmitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.Source != "raw" || got.Result != "dry run" {
		t.Errorf("got %+v", got)
	}
}

func TestConfigFlagOverrides(t *testing.T) {
	e, cfgPath, _ := testEnv(t)
	if _, err := runCLI(t, e, "--config", cfgPath, "--frequency", "1200", "captures"); err == nil {
		t.Error("expected out-of-band frequency to fail validation")
	}
	if _, err := runCLI(t, e, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "captures"); err == nil {
		t.Error("expected error for an explicit missing config file")
	}
}
