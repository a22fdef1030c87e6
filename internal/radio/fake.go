package radio

import (
	"fmt"
	"strings"
	"sync"
)

// Fake is a test double that records every call.
type Fake struct {
	mu sync.Mutex

	// Calls lists method invocations in order, e.g. "StartReceive 433.920 MHz AM650".
	Calls []string

	Frequency    float64
	Preset       string
	Receiving    bool
	Transmitting bool

	// RSSI maps a frequency to its scripted reading; unlisted frequencies read -100.
	RSSI map[float64]int16

	// Errors, keyed by method name, are returned instead of performing the call.
	Errors map[string]error
}

// NewFake returns a Fake tuned to the defaults.
func NewFake() *Fake {
	return &Fake{Frequency: DefaultFrequency, Preset: DefaultPreset}
}

func (f *Fake) record(name, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := name
	if detail != "" {
		call += " " + detail
	}
	f.Calls = append(f.Calls, call)
	return f.Errors[name]
}

func (f *Fake) StartReceive(p Params) error {
	if err := f.record("StartReceive", p.String()); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Frequency, f.Preset = p.FrequencyMHz, p.Preset
	f.Receiving, f.Transmitting = true, false
	return nil
}

func (f *Fake) StopReceive() error {
	if err := f.record("StopReceive", ""); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Receiving = false
	return nil
}

func (f *Fake) StartTransmit(p Params) error {
	if err := f.record("StartTransmit", p.String()); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Frequency, f.Preset = p.FrequencyMHz, p.Preset
	f.Receiving, f.Transmitting = false, true
	return nil
}

func (f *Fake) Idle() error {
	// Idle always succeeds in state even when an error is scripted.
	err := f.record("Idle", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Receiving, f.Transmitting = false, false
	return err
}

func (f *Fake) SetFrequency(mhz float64) error {
	if err := f.record("SetFrequency", fmt.Sprintf("%.3f", mhz)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Frequency = mhz
	return nil
}

func (f *Fake) SetPreset(name string) error {
	if err := f.record("SetPreset", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Preset = name
	return nil
}

func (f *Fake) ReadRSSI() (int16, error) {
	if err := f.record("ReadRSSI", ""); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.RSSI[f.Frequency]; ok {
		return v, nil
	}
	return -100, nil
}

// CallNames returns the recorded method names without arguments.
func (f *Fake) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i], _, _ = strings.Cut(c, " ")
	}
	return out
}

// Keyed reports whether the fake is receiving or transmitting.
func (f *Fake) Keyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Receiving || f.Transmitting
}
