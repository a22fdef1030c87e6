package gpio

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

type edge struct {
	Micros uint64
	High   bool
}

type recorder struct {
	mu    sync.Mutex
	edges []edge
}

func (r *recorder) handle(micros uint64, high bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, edge{micros, high})
}

func (r *recorder) snapshot() []edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]edge(nil), r.edges...)
}

var wantEdges = []edge{{0, true}, {320, false}, {960, true}, {1280, false}}

func TestSynthEdges(t *testing.T) {
	var r recorder
	s := synth{h: r.handle}
	for _, p := range []pulse.Pulse{320, -640, 0, 320} {
		s.pulse(p)
	}
	if got := r.snapshot(); !reflect.DeepEqual(got, wantEdges) {
		t.Errorf("got %v, want %v", got, wantEdges)
	}
}

func TestFakeEdgeSourcePlay(t *testing.T) {
	var r recorder
	f := &FakeEdgeSource{}
	if f.Edge(0, true) {
		t.Error("edge delivered before Start")
	}
	if err := f.Start(r.handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.Start(r.handle); err == nil {
		t.Error("second Start should fail")
	}
	f.Play(pulse.Signal{320, -640, 320})
	if got := r.snapshot(); !reflect.DeepEqual(got, wantEdges) {
		t.Errorf("got %v, want %v", got, wantEdges)
	}

	f.Stop()
	if f.Attached() {
		t.Error("still attached after Stop")
	}
	if f.Edge(5000, true) {
		t.Error("edge delivered after Stop")
	}
	f.Close()
	if !f.Closed || f.Starts != 1 || f.Stops != 1 {
		t.Errorf("got starts=%d stops=%d closed=%v", f.Starts, f.Stops, f.Closed)
	}
}

func TestFakeEdgeSourceStartError(t *testing.T) {
	f := &FakeEdgeSource{StartError: errors.New("busy")}
	if err := f.Start(func(uint64, bool) {}); err == nil {
		t.Error("expected error")
	}
	if f.Attached() {
		t.Error("attached after failed Start")
	}
}

func TestFakePin(t *testing.T) {
	var clock uint64
	p := &FakePin{Now: func() uint64 { return clock }}
	p.Set(true)
	clock = 500
	p.Set(false)
	want := []PinChange{{0, true}, {500, false}}
	if !reflect.DeepEqual(p.Changes, want) {
		t.Errorf("got %v, want %v", p.Changes, want)
	}
	p.Set(true)
	p.Close()
	if p.Level || !p.Closed {
		t.Errorf("after Close: level=%v closed=%v", p.Level, p.Closed)
	}
}

func TestSerialEdgeSource(t *testing.T) {
	pr, pw := io.Pipe()
	s := &SerialEdgeSource{open: func() (io.ReadCloser, error) { return pr, nil }}

	var r recorder
	if err := s.Start(r.handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(r.handle); err == nil {
		t.Error("second Start should fail")
	}

	go pw.Write([]byte("RAW_Data: 320 -640\r\n320\n"))

	deadline := time.Now().Add(2 * time.Second)
	for len(r.snapshot()) < len(wantEdges) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := r.snapshot(); !reflect.DeepEqual(got, wantEdges) {
		t.Errorf("got %v, want %v", got, wantEdges)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestTokenizerDropsOverlongTokens(t *testing.T) {
	var tz tokenizer
	var got []string
	emit := func(tok []byte) { got = append(got, string(tok)) }

	tz.feed([]byte("320 "), emit)
	for i := 0; i < 100; i++ {
		tz.feed(bytes.Repeat([]byte("7"), 256), emit)
		if len(tz.tok) > maxToken {
			t.Fatalf("token grew to %d bytes", len(tz.tok))
		}
	}
	tz.feed([]byte("\n-640,32"), emit)
	tz.feed([]byte("0\n"), emit)

	want := []string{"320", "-640", "320"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialEdgeSourceOpenError(t *testing.T) {
	s := &SerialEdgeSource{open: func() (io.ReadCloser, error) { return nil, errors.New("no such device") }}
	if err := s.Start(func(uint64, bool) {}); err == nil {
		t.Error("expected error")
	}
}
