package domain

import (
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
)

const (
	// CoherenceSamples is the length of both series compared by the CCI.
	CoherenceSamples = 24

	psiNoiseStdDev = 0.05
	depthCeilingKm = 5.0
	rollingWindow  = 3
)

// Coherence band thresholds, inclusive at the lower bound.
const (
	CoherentThreshold = 0.7
	ModerateThreshold = 0.4
)

// CoherenceBand labels a CCI value for display.
type CoherenceBand string

const (
	BandCoherent  CoherenceBand = "Coherent"
	BandModerate  CoherenceBand = "Moderate"
	BandDecoupled CoherenceBand = "Decoupled"
)

// ClassifyCoherence maps a CCI onto its display band.
func ClassifyCoherence(cci float64) CoherenceBand {
	switch {
	case cci >= CoherentThreshold:
		return BandCoherent
	case cci >= ModerateThreshold:
		return BandModerate
	default:
		return BandDecoupled
	}
}

// ComputeCoherence returns the squared correlation between a synthetic ψₛ
// history and the seismic depth signal. Tables with fewer than two rows give 0.
func ComputeCoherence(psi float64, table SeismicTable, rng *rand.Rand) float64 {
	if len(table.Events) < 2 {
		return 0
	}
	history := PsiHistory(psi, CoherenceSamples, rng)
	depth := DepthSignal(table, CoherenceSamples)
	return squaredCorrelation(history, depth)
}

// PsiHistory samples n values from a normal distribution centred on psi.
func PsiHistory(psi float64, n int, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = psi + rng.NormFloat64()*psiNoiseStdDev
	}
	return out
}

// DepthSignal clips depths to [0, 5] km, smooths them with a trailing
// three-row mean and resamples the result onto n evenly spaced points across
// the table's index range by linear interpolation.
func DepthSignal(table SeismicTable, n int) []float64 {
	rows := len(table.Events)
	if rows == 0 || n <= 0 {
		return nil
	}

	clipped := make([]float64, rows)
	for i, ev := range table.Events {
		clipped[i] = clip(ev.DepthKm, 0, depthCeilingKm)
	}

	rolled := make([]float64, rows)
	for i := range clipped {
		lo := max(0, i-rollingWindow+1)
		var sum float64
		for _, v := range clipped[lo : i+1] {
			sum += v
		}
		rolled[i] = sum / float64(i+1-lo)
	}

	out := make([]float64, n)
	if rows == 1 || n == 1 {
		for i := range out {
			out[i] = rolled[0]
		}
		return out
	}

	span := float64(rows - 1)
	for k := range out {
		x := float64(k) * span / float64(n-1)
		lo := int(math.Floor(x))
		if lo >= rows-1 {
			out[k] = rolled[rows-1]
			continue
		}
		frac := x - float64(lo)
		out[k] = rolled[lo] + frac*(rolled[lo+1]-rolled[lo])
	}
	return out
}

// squaredCorrelation z-scores both series and returns r². Series without
// variance have no defined correlation and score 0.
func squaredCorrelation(a, b []float64) float64 {
	za, ok := zScore(a)
	if !ok {
		return 0
	}
	zb, ok := zScore(b)
	if !ok {
		return 0
	}
	r, err := stats.Pearson(za, zb)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return clip(r*r, 0, 1)
}

func zScore(xs []float64) ([]float64, bool) {
	mean, err := stats.Mean(xs)
	if err != nil {
		return nil, false
	}
	sd, err := stats.StandardDeviationSample(xs)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return nil, false
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - mean) / sd
	}
	return out, true
}
