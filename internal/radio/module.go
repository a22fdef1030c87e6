package radio

import (
	"fmt"
	"math"
)

// A Module is a fixed-frequency OOK receiver/transmitter board pair (the
// common 315/433/868 MHz superheterodyne modules). The host only controls two
// enable lines; frequency and modem settings are fixed in hardware.

// boardTolerance is how far a requested frequency may sit from the board's.
const boardTolerance = 0.5

// CanReadRSSI is false: the boards have no signal strength output.
func (m *Module) CanReadRSSI() bool {
	return false
}

func checkBoard(board float64, p Params) error {
	if err := checkFrequency(board, p.FrequencyMHz); err != nil {
		return err
	}
	return checkPreset(p.Preset)
}

func checkFrequency(board, mhz float64) error {
	if math.Abs(board-mhz) > boardTolerance {
		return fmt.Errorf("module tuned to %.3f MHz, not %.3f: %w", board, mhz, ErrUnsupported)
	}
	return nil
}

func checkPreset(name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	if p.Modulation != OOK {
		return fmt.Errorf("module cannot use %s preset %s: %w", p.Modulation, p.Name, ErrUnsupported)
	}
	return nil
}
