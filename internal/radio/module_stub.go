//go:build !linux

package radio

import "errors"

// Module is not available on non-Linux platforms.
type Module struct{}

// NewModule returns an error on non-Linux platforms.
func NewModule(chipName string, rxEnable, txEnable int, boardMHz float64) (*Module, error) {
	return nil, errors.New("radio: module not supported on this platform (requires Linux)")
}

func (m *Module) StartReceive(Params) error { return ErrUnsupported }

func (m *Module) StopReceive() error { return nil }

func (m *Module) StartTransmit(Params) error { return ErrUnsupported }

func (m *Module) Idle() error { return nil }

func (m *Module) SetFrequency(float64) error { return ErrUnsupported }

func (m *Module) SetPreset(string) error { return ErrUnsupported }

func (m *Module) ReadRSSI() (int16, error) { return 0, ErrUnsupported }

// Close is a no-op on non-Linux platforms.
func (m *Module) Close() error { return nil }
