// Package radio models the sub-GHz transceiver: the control surface driven by
// capture and replay, the modem preset table, and the session mode.
package radio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by radios that cannot perform an operation.
var ErrUnsupported = errors.New("radio: operation not supported")

// Control is the transceiver interface. Implementations are not required to
// be safe for concurrent use; SessionState serializes access.
type Control interface {
	StartReceive(p Params) error
	StopReceive() error
	StartTransmit(p Params) error
	Idle() error
	SetFrequency(mhz float64) error
	SetPreset(name string) error
	ReadRSSI() (int16, error)
}

// Modulation is the modem scheme of a preset.
type Modulation int

const (
	FSK Modulation = 0
	OOK Modulation = 2
)

func (m Modulation) String() string {
	if m == OOK {
		return "ASK/OOK"
	}
	return "2-FSK"
}

// Preset is a named modem configuration.
type Preset struct {
	Name        string
	Modulation  Modulation
	DataRate    float64 // kBaud
	RxBandwidth float64 // kHz
	Deviation   float64 // kHz
	Sync        int
}

var presets = []Preset{
	{Name: "AM650", Modulation: OOK, DataRate: 3.79372, RxBandwidth: 650, Deviation: 1.58},
	{Name: "AM270", Modulation: OOK, DataRate: 3.79372, RxBandwidth: 270.833333, Deviation: 1.58},
	{Name: "FM238", Modulation: FSK, DataRate: 4.79794, RxBandwidth: 270.833333, Deviation: 2.380371},
	{Name: "FM476", Modulation: FSK, DataRate: 4.79794, RxBandwidth: 270.833333, Deviation: 47.60742},
	{Name: "FM95", Modulation: FSK, DataRate: 4.798, RxBandwidth: 270, Deviation: 9.521, Sync: 6},
	{Name: "FM15k", Modulation: FSK, DataRate: 3.794, RxBandwidth: 135, Deviation: 15.869, Sync: 7},
	{Name: "FSK12k", Modulation: FSK, DataRate: 12.69, RxBandwidth: 200, Deviation: 12.69},
	{Name: "FSK25k", Modulation: FSK, DataRate: 25.39, RxBandwidth: 200, Deviation: 25.39, Sync: 0x47},
	{Name: "FSK31k", Modulation: FSK, DataRate: 31.73, RxBandwidth: 200, Deviation: 31.73},
	{Name: "PAGER", Modulation: FSK, DataRate: 0.625, RxBandwidth: 270, Deviation: 5.157, Sync: 6},
	{Name: "HND1", Modulation: FSK, DataRate: 37.04, RxBandwidth: 250, Deviation: 30, Sync: 6},
	{Name: "HND2", Modulation: FSK, DataRate: 15.357, RxBandwidth: 67, Deviation: 15.869, Sync: 7},
}

// Defaults used when no configuration is given.
const (
	DefaultPreset    = "AM650"
	DefaultFrequency = 433.92
)

// Presets returns the preset table.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Params selects the receive or transmit channel.
type Params struct {
	FrequencyMHz float64
	Preset       string
}

// bands are the tunable ranges of a CC1101-class transceiver.
var bands = [][2]float64{{300, 348}, {387, 464}, {779, 928}}

// InBand reports whether mhz falls in a tunable range.
func InBand(mhz float64) bool {
	for _, b := range bands {
		if mhz >= b[0] && mhz <= b[1] {
			return true
		}
	}
	return false
}

// Validate checks the frequency band and preset name.
func (p Params) Validate() error {
	if !InBand(p.FrequencyMHz) {
		return fmt.Errorf("radio: frequency %.3f MHz outside supported bands", p.FrequencyMHz)
	}
	if _, ok := LookupPreset(p.Preset); !ok {
		return fmt.Errorf("radio: unknown preset %q", p.Preset)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%.3f MHz %s", p.FrequencyMHz, p.Preset)
}
