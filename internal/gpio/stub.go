//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns an error on non-Linux platforms.
func NewRealEdgeSource(chipName string, offset int) (*RealEdgeSource, error) {
	return nil, errUnsupported
}

// Start is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Start(EdgeHandler) error {
	return errUnsupported
}

// Stop is a no-op on non-Linux platforms.
func (s *RealEdgeSource) Stop() error {
	return nil
}

// Close is a no-op on non-Linux platforms.
func (s *RealEdgeSource) Close() error {
	return nil
}

// RealPin is not available on non-Linux platforms.
type RealPin struct{}

// NewRealPin returns an error on non-Linux platforms.
func NewRealPin(chipName string, offset int) (*RealPin, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (p *RealPin) Set(bool) error {
	return errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (p *RealPin) Close() error {
	return nil
}
