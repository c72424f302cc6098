package domain

import "math"

// ShallowDepthKm is the depth below which an event counts as shallow.
const ShallowDepthKm = 2.5

// Phase thresholds, inclusive at the lower bound of each band.
const (
	ActiveThreshold   = 0.85
	ElevatedThreshold = 0.6
)

// EII weights.
const (
	weightMaxMagnitude  = 0.2
	weightMeanMagnitude = 0.15
	weightShallowRatio  = 0.4
	weightPsi           = 0.25
)

// Phase is the discrete resonance classification derived from the EII.
type Phase string

const (
	PhaseMonitoring Phase = "MONITORING"
	PhaseElevated   Phase = "ELEVATED"
	PhaseActive     Phase = "ACTIVE"
)

// Description returns the caption shown alongside the phase.
func (p Phase) Description() string {
	switch p {
	case PhaseActive:
		return "ACTIVE – Collapse Window Initiated"
	case PhaseElevated:
		return "ELEVATED – Pressure Coupling Phase"
	default:
		return "MONITORING"
	}
}

// SeismicStats are the table aggregates that feed the EII.
type SeismicStats struct {
	Count         int     `json:"count"`
	MaxMagnitude  float64 `json:"max_magnitude"`
	MeanMagnitude float64 `json:"mean_magnitude"`
	ShallowRatio  float64 `json:"shallow_ratio"`
}

// ComputeStats aggregates magnitude and depth over the whole table. An empty
// table yields zeros.
func ComputeStats(table SeismicTable) SeismicStats {
	n := len(table.Events)
	if n == 0 {
		return SeismicStats{}
	}

	maxMag := math.Inf(-1)
	var sum float64
	var shallow int
	for _, ev := range table.Events {
		maxMag = math.Max(maxMag, ev.Magnitude)
		sum += ev.Magnitude
		if ev.DepthKm < ShallowDepthKm {
			shallow++
		}
	}
	return SeismicStats{
		Count:         n,
		MaxMagnitude:  maxMag,
		MeanMagnitude: sum / float64(n),
		ShallowRatio:  float64(shallow) / float64(n),
	}
}

// ComputeEII returns the Energetic Instability Index, always within [0, 1].
func ComputeEII(mdMax, mdMean, shallowRatio, psi float64) float64 {
	raw := weightMaxMagnitude*mdMax +
		weightMeanMagnitude*mdMean +
		weightShallowRatio*shallowRatio +
		weightPsi*psi
	return clip(raw, 0, 1)
}

// ClassifyPhase maps an EII onto its resonance phase.
func ClassifyPhase(eii float64) Phase {
	switch {
	case eii >= ActiveThreshold:
		return PhaseActive
	case eii >= ElevatedThreshold:
		return PhaseElevated
	default:
		return PhaseMonitoring
	}
}

// clip bounds v to [lo, hi]. NaN collapses to lo.
func clip(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
