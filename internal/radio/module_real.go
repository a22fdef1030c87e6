//go:build linux

package radio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Module drives the enable lines of a fixed-frequency OOK board pair.
type Module struct {
	board float64

	chip *gpiocdev.Chip
	rx   *gpiocdev.Line
	tx   *gpiocdev.Line
}

// NewModule requests the RX and TX enable lines as outputs, both off.
func NewModule(chipName string, rxEnable, txEnable int, boardMHz float64) (*Module, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	rx, err := chip.RequestLine(rxEnable, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request rx enable %d: %w", rxEnable, err)
	}

	tx, err := chip.RequestLine(txEnable, gpiocdev.AsOutput(0))
	if err != nil {
		rx.Close()
		chip.Close()
		return nil, fmt.Errorf("request tx enable %d: %w", txEnable, err)
	}

	return &Module{board: boardMHz, chip: chip, rx: rx, tx: tx}, nil
}

func (m *Module) set(rx, tx int) error {
	// Drop the active side first so both boards are never keyed together.
	if rx == 0 {
		if err := m.rx.SetValue(0); err != nil {
			return fmt.Errorf("set rx enable: %w", err)
		}
	}
	if err := m.tx.SetValue(tx); err != nil {
		return fmt.Errorf("set tx enable: %w", err)
	}
	if rx == 1 {
		if err := m.rx.SetValue(1); err != nil {
			return fmt.Errorf("set rx enable: %w", err)
		}
	}
	return nil
}

func (m *Module) StartReceive(p Params) error {
	if err := checkBoard(m.board, p); err != nil {
		return err
	}
	return m.set(1, 0)
}

func (m *Module) StopReceive() error {
	return m.set(0, 0)
}

func (m *Module) StartTransmit(p Params) error {
	if err := checkBoard(m.board, p); err != nil {
		return err
	}
	return m.set(0, 1)
}

func (m *Module) Idle() error {
	return m.set(0, 0)
}

func (m *Module) SetFrequency(mhz float64) error {
	return checkFrequency(m.board, mhz)
}

func (m *Module) SetPreset(name string) error {
	return checkPreset(name)
}

func (m *Module) ReadRSSI() (int16, error) {
	return 0, ErrUnsupported
}

// Close turns both boards off and releases the lines, returning them to
// inputs with pull-down.
func (m *Module) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{{"rx", m.rx}, {"tx", m.tx}} {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s enable: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s enable: %w", l.name, err))
		}
	}
	if m.chip != nil {
		if err := m.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
