package logic

import (
	"context"

	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Analyzer runs the classification and decode pipeline on captured signals.
type Analyzer struct {
	engine *protocol.Engine
}

// NewAnalyzer returns an analyzer decoding with e.
func NewAnalyzer(e *protocol.Engine) *Analyzer {
	return &Analyzer{engine: e}
}

// Engine returns the engine the analyzer decodes with.
func (a *Analyzer) Engine() *protocol.Engine {
	return a.engine
}

// Analyze normalizes sig, classifies and groups it, then decodes the whole
// signal followed by each pulse train. A signal with no classifiable pulse is
// OutcomeNoSignal. The error is non-nil only when ctx
// ends during decode.
func (a *Analyzer) Analyze(ctx context.Context, sig pulse.Signal) (Result, error) {
	norm := pulse.Normalize(sig)
	if len(norm) == 0 {
		return Result{Outcome: OutcomeNoSignal, Train: WholeSignal}, nil
	}

	stats := pulse.ComputeStatistics(norm)
	if stats.Empty() {
		// Every pulse is noise.
		return Result{Outcome: OutcomeNoSignal, Signal: norm, Train: WholeSignal}, nil
	}
	res := Result{
		Outcome: OutcomeUndecoded,
		Signal:  norm,
		Stats:   stats,
		Trains:  pulse.GroupIntoPulseTrains(norm, stats),
		Train:   WholeSignal,
	}

	code, ok, err := a.engine.DecodeContext(ctx, norm)
	if err != nil {
		return res, err
	}
	if ok {
		res.Outcome, res.Code = OutcomeDecoded, code
		return res, nil
	}

	for i, tr := range res.Trains {
		code, ok, err := a.engine.DecodeTrainContext(ctx, tr)
		if err != nil {
			return res, err
		}
		if ok {
			res.Outcome, res.Code, res.Train = OutcomeDecoded, code, i
			return res, nil
		}
	}
	return res, nil
}
