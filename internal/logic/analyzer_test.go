package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
)

func cameCapture(t *testing.T) pulse.Signal {
	t.Helper()
	sig, err := protocol.Came.Encode(protocol.Code{Data: protocol.FromUint64(0xABC, 12)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return sig
}

func TestAnalyzeEmpty(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	res, err := a.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Outcome != OutcomeNoSignal {
		t.Errorf("got %s, want NO_SIGNAL", res.Outcome)
	}
	if got := res.Outcome.Message(res.Code); got != "no signal" {
		t.Errorf("message: got %q", got)
	}
}

func TestAnalyzeDecodesCame(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	res, err := a.Analyze(context.Background(), cameCapture(t))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Outcome != OutcomeDecoded {
		t.Fatalf("got %s, want DECODED", res.Outcome)
	}
	if res.Code.Protocol != "Came" || res.Code.Value() != 0xABC {
		t.Errorf("got %s", res.Code)
	}
	if res.Train != WholeSignal {
		t.Errorf("Train: got %d, want whole signal", res.Train)
	}
	if res.Stats.ShortAvg != 320 || res.Stats.LongAvg != 640 {
		t.Errorf("stats: got short=%d long=%d, want 320/640", res.Stats.ShortAvg, res.Stats.LongAvg)
	}
	// The leading header gap is trimmed.
	if res.Signal[0] == -15040 {
		t.Error("leading gap not trimmed")
	}
	if got := res.Outcome.Message(res.Code); got != "decoded as Came" {
		t.Errorf("message: got %q", got)
	}
}

func TestAnalyzeUndecoded(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	sig := pulse.Signal{300, -900, 300, -900, 900, -300, 300, -9000, 300, -900}
	res, err := a.Analyze(context.Background(), sig)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Outcome != OutcomeUndecoded {
		t.Errorf("got %s, want UNDECODED", res.Outcome)
	}
	if res.Stats.Empty() {
		t.Error("statistics should not be empty")
	}
	if len(res.Trains) != 2 {
		t.Errorf("got %d trains, want 2", len(res.Trains))
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, cameCapture(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

// shortGapCame is a Came capture whose frames are separated by 5ms gaps:
// pauses to the classifier but too short for the Came header.
func shortGapCame(t *testing.T) pulse.Signal {
	t.Helper()
	sig := cameCapture(t).Clone()
	for i, p := range sig {
		if !p.High() && p.Width() > pulse.LeadingTrimWidth {
			sig[i] = pulse.Of(false, 5000)
		}
	}
	return sig
}

func TestAnalyzeDecodesPulseTrain(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	sig := shortGapCame(t)
	if c, ok := protocol.Default().Decode(pulse.Normalize(sig)); ok {
		t.Fatalf("whole signal decoded as %s", c)
	}

	res, err := a.Analyze(context.Background(), sig)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Outcome != OutcomeDecoded {
		t.Fatalf("got %s, want DECODED", res.Outcome)
	}
	if res.Train != 0 {
		t.Errorf("Train: got %d, want 0", res.Train)
	}
	if res.Code.Protocol != "Came" || res.Code.Value() != 0xABC || res.Code.BitCount != 12 {
		t.Errorf("got %s", res.Code)
	}
	if len(res.Trains) < 2 {
		t.Errorf("got %d trains, want several", len(res.Trains))
	}
}

func TestAnalyzeSubFloorNoise(t *testing.T) {
	a := NewAnalyzer(protocol.Default())
	var sig pulse.Signal
	for i := 0; i < 40; i++ {
		sig = append(sig, pulse.Of(true, 50), pulse.Of(false, 60))
	}
	res, err := a.Analyze(context.Background(), sig)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Outcome != OutcomeNoSignal {
		t.Errorf("got %s, want NO_SIGNAL", res.Outcome)
	}
	if !res.Stats.Empty() {
		t.Errorf("expected empty statistics, got %+v", res.Stats)
	}
	if res.Trains != nil {
		t.Errorf("expected no trains, got %d", len(res.Trains))
	}
}
