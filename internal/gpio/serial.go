package gpio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// SerialEdgeSource reads signed pulse durations (µs, whitespace separated,
// optionally prefixed with "RAW_Data:") from a capture MCU on a serial port
// and replays them as edges on a virtual microsecond clock.
type SerialEdgeSource struct {
	open func() (io.ReadCloser, error)

	mu   sync.Mutex
	port io.ReadCloser
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSerialEdgeSource returns a source for device name at baud.
func NewSerialEdgeSource(name string, baud int) *SerialEdgeSource {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: 100 * time.Millisecond}
	return &SerialEdgeSource{
		open: func() (io.ReadCloser, error) {
			return serial.OpenPort(cfg)
		},
	}
}

// Start opens the port and begins delivering edges to h.
func (s *SerialEdgeSource) Start(h EdgeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return errors.New("edge source already started")
	}
	port, err := s.open()
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	s.port = port
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.read(port, &synth{h: h}, s.done)
	return nil
}

func (s *SerialEdgeSource) read(r io.Reader, sy *synth, done <-chan struct{}) {
	defer s.wg.Done()
	buf := make([]byte, 256)
	var tz tokenizer
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := r.Read(buf)
		tz.feed(buf[:n], sy.token)

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// Read timeout on an idle port.
			if n == 0 {
				time.Sleep(10 * time.Millisecond)
			}
		default:
			select {
			case <-done:
			default:
				log.Printf("serial: read: %v", err)
			}
			return
		}
	}
}

// maxToken bounds a token; "-2147483648" is the longest valid one.
const maxToken = 16

// tokenizer splits the serial stream on separators. A token longer than
// maxToken is dropped up to the next separator.
type tokenizer struct {
	tok  []byte
	skip bool
}

func (t *tokenizer) feed(data []byte, emit func([]byte)) {
	for _, c := range data {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			if !t.skip {
				emit(t.tok)
			}
			t.tok = t.tok[:0]
			t.skip = false
			continue
		}
		if t.skip {
			continue
		}
		if len(t.tok) == maxToken {
			t.tok = t.tok[:0]
			t.skip = true
			continue
		}
		t.tok = append(t.tok, c)
	}
}

func (s *synth) token(tok []byte) {
	if len(tok) == 0 {
		return
	}
	v, err := strconv.ParseInt(string(tok), 10, 32)
	if err != nil {
		// Headers such as "RAW_Data:" and line noise are skipped.
		return
	}
	s.pulse(pulse.Pulse(v))
}

// Stop closes the port and waits for the reader to exit.
func (s *SerialEdgeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	close(s.done)
	err := s.port.Close()
	s.wg.Wait()
	s.port = nil
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// Close is Stop; the source can be restarted until then.
func (s *SerialEdgeSource) Close() error {
	return s.Stop()
}
