package radio

import (
	"context"
	"fmt"
	"time"
)

// ScanFrequencies is the standard sweep list in MHz.
var ScanFrequencies = []float64{
	300.000, 303.875, 304.250, 310.000, 315.000, 318.000,
	390.000, 418.000, 433.075, 433.420, 433.920, 434.420, 434.775, 438.900,
	868.350, 868.000, 915.000, 925.000,
}

// ScanThreshold is the RSSI in dBm a channel must exceed to be reported.
const ScanThreshold = -75

// Reading is one RSSI sample.
type Reading struct {
	FrequencyMHz float64 `json:"frequency_mhz"`
	RSSI         int16   `json:"rssi"`
}

// ScanResult holds every reading and the strongest one above the threshold.
type ScanResult struct {
	Readings []Reading `json:"readings"`
	Found    bool      `json:"found"`
	Best     Reading   `json:"best"`
}

// RSSIProber is implemented by radios that know up front whether they can
// read RSSI.
type RSSIProber interface {
	CanReadRSSI() bool
}

// Scan tunes c across freqs in receive mode and reads RSSI on each, waiting
// settle after every retune. The radio is returned to idle. A radio that
// reports it cannot read RSSI fails with ErrUnsupported before it is touched.
func Scan(ctx context.Context, c Control, preset string, freqs []float64, settle time.Duration) (ScanResult, error) {
	var res ScanResult
	if p, ok := c.(RSSIProber); ok && !p.CanReadRSSI() {
		return res, fmt.Errorf("scan needs an rssi readout: %w", ErrUnsupported)
	}
	if len(freqs) == 0 {
		return res, nil
	}
	if err := c.StartReceive(Params{FrequencyMHz: freqs[0], Preset: preset}); err != nil {
		return res, fmt.Errorf("start receive: %w", err)
	}
	defer c.Idle()

	for _, f := range freqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := c.SetFrequency(f); err != nil {
			return res, fmt.Errorf("set frequency %.3f: %w", f, err)
		}
		if settle > 0 {
			t := time.NewTimer(settle)
			select {
			case <-ctx.Done():
				t.Stop()
				return res, ctx.Err()
			case <-t.C:
			}
		}
		rssi, err := c.ReadRSSI()
		if err != nil {
			return res, fmt.Errorf("read rssi at %.3f: %w", f, err)
		}
		r := Reading{FrequencyMHz: f, RSSI: rssi}
		res.Readings = append(res.Readings, r)
		if rssi > ScanThreshold && (!res.Found || rssi > res.Best.RSSI) {
			res.Found = true
			res.Best = r
		}
	}
	return res, nil
}
