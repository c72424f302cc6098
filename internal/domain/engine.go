package domain

import (
	"math/rand/v2"
	"sync"
)

// Assessment is the metric output for one cycle.
type Assessment struct {
	Stats         SeismicStats
	EII           float64
	Phase         Phase
	CCI           float64
	CoherenceBand CoherenceBand
}

// Engine evaluates the fused metrics. It owns the random source behind the
// synthetic ψₛ history and is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an Engine. A zero seed draws a random one.
func NewEngine(seed uint64) *Engine {
	return &Engine{rng: newRand(seed)}
}

// Evaluate computes the EII, phase and coherence for a table. Live and
// synthetic tables take the same path. An empty table is a caller bug and
// returns ErrEmptyTable.
func (e *Engine) Evaluate(psi float64, table SeismicTable) (Assessment, error) {
	if len(table.Events) == 0 {
		return Assessment{}, ErrEmptyTable
	}

	s := ComputeStats(table)
	eii := ComputeEII(s.MaxMagnitude, s.MeanMagnitude, s.ShallowRatio, psi)

	e.mu.Lock()
	cci := ComputeCoherence(psi, table, e.rng)
	e.mu.Unlock()

	return Assessment{
		Stats:         s,
		EII:           eii,
		Phase:         ClassifyPhase(eii),
		CCI:           cci,
		CoherenceBand: ClassifyCoherence(cci),
	}, nil
}
