package pulse

// Classification limits in microseconds.
const (
	NoiseFloor       = 100
	ClassCeiling     = 2000
	LeadingTrimWidth = 2500
	TolerancePercent = 20

	// A low pulse longer than pauseFactor long averages is a pause.
	pauseFactor = 4
)

// MergeAdjacentSameSign sums consecutive same-sign pulses into one and drops
// zero-length entries. Sums saturate at MaxWidth. The input is not modified.
func MergeAdjacentSameSign(sig Signal) Signal {
	out := make(Signal, 0, len(sig))
	for _, p := range sig {
		if p == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].High() == p.High() {
			sum := uint64(out[n-1].Width()) + uint64(p.Width())
			out[n-1] = Of(p.High(), uint32(min(sum, MaxWidth)))
			continue
		}
		out = append(out, p)
	}
	return out
}

// TrimLeading drops a single leading pulse longer than LeadingTrimWidth,
// the silence captured before the first frame.
func TrimLeading(sig Signal) Signal {
	if len(sig) > 0 && sig[0].Width() > LeadingTrimWidth {
		return sig[1:]
	}
	return sig
}

// Normalize runs the merge and trim passes in the order analysis expects.
func Normalize(sig Signal) Signal {
	return TrimLeading(MergeAdjacentSameSign(sig))
}

type bucket struct {
	sum uint64
	n   int
}

func (b *bucket) add(w uint32) {
	b.sum += uint64(w)
	b.n++
}

func (b bucket) avg() uint32 {
	if b.n == 0 {
		return 0
	}
	return uint32(b.sum / uint64(b.n))
}

func withinTolerance(w, avg uint32) bool {
	tol := avg * TolerancePercent / 100
	if w > avg {
		return w-avg <= tol
	}
	return avg-w <= tol
}

// ComputeStatistics classifies pulses into short and long buckets.
//
// The first classifiable pulse seeds the short bucket and its successor seeds
// the long bucket when it falls outside the short band. Later pulses join
// whichever running average they are within TolerancePercent of; anything
// else, and anything outside [NoiseFloor, ClassCeiling], is noise.
func ComputeStatistics(sig Signal) Statistics {
	var short, long bucket
	seeded := -1

	for i, p := range sig {
		w := p.Width()
		if w < NoiseFloor || w > ClassCeiling || i == seeded {
			continue
		}

		if short.n == 0 {
			short.add(w)
			if i+1 < len(sig) {
				next := sig[i+1].Width()
				if next >= NoiseFloor && next <= ClassCeiling && !withinTolerance(next, w) {
					long.add(next)
					seeded = i + 1
				}
			}
			continue
		}

		switch {
		case withinTolerance(w, short.avg()):
			short.add(w)
		case long.n == 0:
			long.add(w)
		case withinTolerance(w, long.avg()):
			long.add(w)
		}
	}

	if short.n == 0 {
		return Statistics{}
	}

	st := Statistics{
		ShortAvg: short.avg(),
		LongAvg:  long.avg(),
		Shorts:   short.n,
		Longs:    long.n,
	}
	if long.n == 0 {
		st.LongAvg = st.ShortAvg
	}
	if st.LongAvg < st.ShortAvg {
		st.ShortAvg, st.LongAvg = st.LongAvg, st.ShortAvg
		st.Shorts, st.Longs = st.Longs, st.Shorts
	}

	var pauses bucket
	for _, p := range sig {
		if !p.High() && uint64(p.Width()) > pauseFactor*uint64(st.LongAvg) {
			pauses.add(p.Width())
		}
	}
	st.PauseAvg = pauses.avg()
	st.Pauses = pauses.n

	return st
}

// GroupIntoPulseTrains splits the signal on low pulses longer than three
// quarters of the pause average. Pause pulses belong to no train and empty
// trains are not returned.
func GroupIntoPulseTrains(sig Signal, st Statistics) []Train {
	if st.Empty() || len(sig) == 0 {
		return nil
	}
	if st.PauseAvg == 0 {
		return []Train{Train(sig.Clone())}
	}

	threshold := st.PauseAvg - st.PauseAvg/4
	var trains []Train
	var cur Train
	for _, p := range sig {
		if !p.High() && p.Width() > threshold {
			if len(cur) > 0 {
				trains = append(trains, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		trains = append(trains, cur)
	}
	return trains
}
