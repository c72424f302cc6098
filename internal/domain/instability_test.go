package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEII_ClipInvariant(t *testing.T) {
	magnitudes := []float64{-3, -0.5, 0, 0.7, 1.5, 3, 9.5}
	unit := []float64{0, 0.1, 0.25, 0.5, 0.75, 1}

	for _, mdMax := range magnitudes {
		for _, mdMean := range magnitudes {
			for _, shallow := range unit {
				for _, psi := range unit {
					eii := ComputeEII(mdMax, mdMean, shallow, psi)
					require.GreaterOrEqual(t, eii, 0.0, "max=%v mean=%v shallow=%v psi=%v", mdMax, mdMean, shallow, psi)
					require.LessOrEqual(t, eii, 1.0, "max=%v mean=%v shallow=%v psi=%v", mdMax, mdMean, shallow, psi)
				}
			}
		}
	}
}

func TestComputeEII(t *testing.T) {
	tests := []struct {
		name     string
		mdMax    float64
		mdMean   float64
		shallow  float64
		psi      float64
		expected float64
	}{
		{"all zero", 0, 0, 0, 0, 0},
		{"psi only", 0, 0, 0, 1, 0.25},
		{"shallow only", 0, 0, 1, 0, 0.4},
		{"weighted sum", 1, 1, 0.5, 0.4, 0.2 + 0.15 + 0.2 + 0.1},
		{"clipped high", 3, 2.5, 0.5, 0.72, 1},
		{"clipped low", -5, -5, 0, 0, 0},
		{"NaN collapses", math.NaN(), 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ComputeEII(tt.mdMax, tt.mdMean, tt.shallow, tt.psi), 1e-12)
		})
	}
}

func TestClassifyPhase(t *testing.T) {
	tests := []struct {
		eii      float64
		expected Phase
	}{
		{0, PhaseMonitoring},
		{0.59999, PhaseMonitoring},
		{0.6, PhaseElevated},
		{0.75, PhaseElevated},
		{0.84999, PhaseElevated},
		{0.85, PhaseActive},
		{1, PhaseActive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyPhase(tt.eii), "eii=%v", tt.eii)
	}
}

func TestPhase_Description(t *testing.T) {
	assert.Equal(t, "ACTIVE – Collapse Window Initiated", PhaseActive.Description())
	assert.Equal(t, "ELEVATED – Pressure Coupling Phase", PhaseElevated.Description())
	assert.Equal(t, "MONITORING", PhaseMonitoring.Description())
}

func TestComputeStats(t *testing.T) {
	t.Run("mixed depths", func(t *testing.T) {
		table := SeismicTable{Events: []SeismicEvent{
			{Magnitude: 1.0, DepthKm: 0.5},
			{Magnitude: 2.0, DepthKm: 2.5},
			{Magnitude: 0.6, DepthKm: 2.4},
			{Magnitude: 1.4, DepthKm: 4.0},
		}}

		s := ComputeStats(table)
		assert.Equal(t, 4, s.Count)
		assert.Equal(t, 2.0, s.MaxMagnitude)
		assert.InDelta(t, 1.25, s.MeanMagnitude, 1e-12)
		assert.InDelta(t, 0.5, s.ShallowRatio, 1e-12, "2.5 km is not shallow")
	})

	t.Run("negative magnitudes", func(t *testing.T) {
		table := SeismicTable{Events: []SeismicEvent{
			{Magnitude: -0.4, DepthKm: 1},
			{Magnitude: -1.2, DepthKm: 1},
		}}

		s := ComputeStats(table)
		assert.Equal(t, -0.4, s.MaxMagnitude)
		assert.Equal(t, 1.0, s.ShallowRatio)
	})

	t.Run("empty table", func(t *testing.T) {
		assert.Equal(t, SeismicStats{}, ComputeStats(SeismicTable{}))
	})
}

func TestEngine_Evaluate_EndToEndScenario(t *testing.T) {
	table := SeismicTable{Events: []SeismicEvent{
		{Magnitude: 3.0, DepthKm: 1.0},
		{Magnitude: 2.0, DepthKm: 5.0},
	}}

	a, err := NewEngine(7).Evaluate(0.72, table)
	require.NoError(t, err)

	assert.Equal(t, 3.0, a.Stats.MaxMagnitude)
	assert.Equal(t, 2.5, a.Stats.MeanMagnitude)
	assert.Equal(t, 0.5, a.Stats.ShallowRatio)
	assert.Equal(t, 1.0, a.EII)
	assert.Equal(t, PhaseActive, a.Phase)
	assert.GreaterOrEqual(t, a.CCI, 0.0)
	assert.LessOrEqual(t, a.CCI, 1.0)
	assert.Equal(t, ClassifyCoherence(a.CCI), a.CoherenceBand)
}

func TestEngine_Evaluate_EmptyTable(t *testing.T) {
	_, err := NewEngine(1).Evaluate(0.5, SeismicTable{})
	require.ErrorIs(t, err, ErrEmptyTable)
}
