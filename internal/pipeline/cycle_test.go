package pipeline_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTTL = 600 * time.Second

func TestCycle_Run_LiveFeeds(t *testing.T) {
	sw := liveSpaceWeather()
	h := newHarness(t, pipeline.Sources{
		SpaceWeather: sw,
		Seismic:      liveSeismic(),
		CME:          &fakeCME{status: domain.CMEStatus{Count: 1, LatestStart: "2024-05-19T11:12Z", Status: domain.StatusOK}},
	}, feedTTL)

	snap, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	assert.Equal(t, testNow, snap.GeneratedAt)
	assert.Equal(t, 0.72, snap.Psi)
	assert.Equal(t, sw.geomag, snap.Geomag)
	assert.Equal(t, sw.solar, snap.Solar)
	assert.False(t, snap.Seismic.Synthetic)
	require.NotNil(t, snap.CME)
	assert.Equal(t, 1, snap.CME.Count)

	assert.Equal(t, domain.SeismicStats{Count: 2, MaxMagnitude: 3.0, MeanMagnitude: 2.5, ShallowRatio: 0.5}, snap.Stats)
	assert.Equal(t, 1.0, snap.EII)
	assert.Equal(t, domain.PhaseActive, snap.Phase)
	assert.Equal(t, "ACTIVE – Collapse Window Initiated", snap.PhaseDescription)
	assert.Len(t, snap.Forecast, domain.ForecastHorizon)
	assert.Empty(t, snap.DegradedFeeds())

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CyclesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EII))
	assert.Equal(t, 3.33, testutil.ToFloat64(h.metrics.KpIndex))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.FeedFallback.WithLabelValues(domain.FeedSeismic)))
}

func TestCycle_Run_SeismicFailureSubstitutesSynthetic(t *testing.T) {
	h := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: failingSeismic()}, feedTTL)

	snap, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	require.Len(t, snap.Seismic.Events, 20)
	assert.True(t, snap.Seismic.Synthetic)
	assert.Equal(t, testNow, snap.Seismic.Events[19].Time)
	assert.Equal(t, []string{domain.FeedSeismic}, snap.DegradedFeeds())
	assert.Equal(t, 20, snap.Stats.Count)
	assert.Nil(t, snap.CME)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.FeedFallback.WithLabelValues(domain.FeedSeismic)))
}

func TestCycle_Run_EmptyCatalogSubstitutesSynthetic(t *testing.T) {
	h := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: &fakeSeismic{}}, feedTTL)

	snap, err := h.cycle.Run(context.Background(), 0.5)
	require.NoError(t, err)
	assert.True(t, snap.Seismic.Synthetic)
	assert.Len(t, snap.Seismic.Events, 20)
}

func TestCycle_Run_FallbackIsIdempotent(t *testing.T) {
	seismic := failingSeismic()
	h := newHarness(t, pipeline.Sources{SpaceWeather: fallbackSpaceWeather(), Seismic: seismic}, 0)

	for range 2 {
		snap, err := h.cycle.Run(context.Background(), 0.72)
		require.NoError(t, err)
		assert.Len(t, snap.Seismic.Events, 20)
		assert.True(t, snap.Seismic.Synthetic)
		assert.Equal(t, domain.FallbackGeomag(), snap.Geomag)
		assert.Equal(t, domain.FallbackSolarWind(), snap.Solar)
	}
	assert.Equal(t, int32(2), seismic.calls.Load(), "zero ttl should refetch every cycle")
}

func TestCycle_Run_SnapshotShapeIndependentOfFallback(t *testing.T) {
	live := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: liveSeismic()}, 0)
	liveSnap, err := live.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	degraded := newHarness(t, pipeline.Sources{SpaceWeather: fallbackSpaceWeather(), Seismic: failingSeismic()}, 0)
	degradedSnap, err := degraded.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	if diff := cmp.Diff(fieldPaths(t, liveSnap), fieldPaths(t, degradedSnap)); diff != "" {
		t.Errorf("snapshot field set differs between live and fallback (-live +fallback):\n%s", diff)
	}
}

func TestCycle_Run_CachesWithinTTL(t *testing.T) {
	sw := liveSpaceWeather()
	seismic := liveSeismic()
	h := newHarness(t, pipeline.Sources{SpaceWeather: sw, Seismic: seismic}, feedTTL)

	first, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	h.clock.Advance(5 * time.Minute)
	second, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	assert.Equal(t, int32(1), seismic.calls.Load())
	assert.Equal(t, int32(2), sw.calls.Load(), "one geomag and one solar-wind fetch")
	assert.Equal(t, first.Seismic, second.Seismic)
	assert.Equal(t, testNow.Add(5*time.Minute), second.GeneratedAt)

	h.clock.Advance(feedTTL)
	_, err = h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)
	assert.Equal(t, int32(2), seismic.calls.Load())
}

func TestCycle_Run_SyntheticTableIsCached(t *testing.T) {
	seismic := failingSeismic()
	h := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: seismic}, feedTTL)

	first, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)
	second, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	assert.Equal(t, int32(1), seismic.calls.Load())
	assert.Equal(t, first.Seismic, second.Seismic)
}

func TestCycle_Run_RecordsDurationFromClock(t *testing.T) {
	seismic := &slowSeismic{fakeSeismic: liveSeismic(), delay: 3 * time.Second}
	h := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: seismic}, feedTTL)
	seismic.clock = h.clock

	_, err := h.cycle.Run(context.Background(), 0.72)
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, h.metrics.CycleDuration.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
	assert.Equal(t, 3.0, m.GetHistogram().GetSampleSum())
}

func TestCycle_Run_InvalidPsi(t *testing.T) {
	h := newHarness(t, pipeline.Sources{SpaceWeather: liveSpaceWeather(), Seismic: liveSeismic()}, feedTTL)

	_, err := h.cycle.Run(context.Background(), 1.5)
	require.Error(t, err)
	assert.Equal(t, 0, h.cache.Len(), "no feeds fetched for invalid psi")
}

// fieldPaths flattens the JSON object keys of v into sorted dotted paths.
// Array elements are described by their first element only.
func fieldPaths(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var doc any
	require.NoError(t, json.Unmarshal(raw, &doc))

	var paths []string
	var walk func(prefix string, node any)
	walk = func(prefix string, node any) {
		switch n := node.(type) {
		case map[string]any:
			for k, child := range n {
				p := k
				if prefix != "" {
					p = prefix + "." + k
				}
				paths = append(paths, p)
				walk(p, child)
			}
		case []any:
			if len(n) > 0 {
				walk(prefix+"[]", n[0])
			}
		}
	}
	walk("", doc)
	sort.Strings(paths)
	return paths
}
