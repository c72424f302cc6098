package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/cache"
	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/couchcryptid/resonance-continuum/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

// --- fakes ---

type fakeSpaceWeather struct {
	geomag domain.GeomagReading
	solar  domain.SolarWindReading
	calls  atomic.Int32
}

func (f *fakeSpaceWeather) Geomag(context.Context) domain.GeomagReading {
	f.calls.Add(1)
	return f.geomag
}

func (f *fakeSpaceWeather) SolarWind(context.Context) domain.SolarWindReading {
	f.calls.Add(1)
	return f.solar
}

type fakeSeismic struct {
	table domain.SeismicTable
	err   error
	calls atomic.Int32
}

func (f *fakeSeismic) Seismic(context.Context) (domain.SeismicTable, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.SeismicTable{}, f.err
	}
	return f.table, nil
}

// slowSeismic advances the fake clock while fetching, standing in for a slow upstream.
type slowSeismic struct {
	*fakeSeismic
	clock *clockwork.FakeClock
	delay time.Duration
}

func (s *slowSeismic) Seismic(ctx context.Context) (domain.SeismicTable, error) {
	s.clock.Advance(s.delay)
	return s.fakeSeismic.Seismic(ctx)
}

type fakeCME struct {
	status domain.CMEStatus
}

func (f *fakeCME) CME(context.Context) domain.CMEStatus { return f.status }

type recordingSink struct {
	name string
	err  error

	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) published() []domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Snapshot(nil), s.snaps...)
}

// --- fixtures ---

func liveSpaceWeather() *fakeSpaceWeather {
	return &fakeSpaceWeather{
		geomag: domain.GeomagReading{KpIndex: 3.33, TimeTag: "2024-05-20 12:00:00.000", Status: domain.StatusOK},
		solar:  domain.SolarWindReading{SpeedKmS: 402.3, DensityPcm3: 5.12, TimeTag: "2024-05-20 12:01:00.000", Status: domain.StatusOK},
	}
}

func fallbackSpaceWeather() *fakeSpaceWeather {
	return &fakeSpaceWeather{geomag: domain.FallbackGeomag(), solar: domain.FallbackSolarWind()}
}

func liveSeismic() *fakeSeismic {
	return &fakeSeismic{table: domain.SeismicTable{Events: []domain.SeismicEvent{
		{Time: testNow.Add(-2 * time.Hour), Magnitude: 3.0, DepthKm: 1.0},
		{Time: testNow.Add(-time.Hour), Magnitude: 2.0, DepthKm: 5.0},
	}}}
}

func failingSeismic() *fakeSeismic {
	return &fakeSeismic{err: &domain.NormalizeError{Feed: domain.FeedSeismic, Kind: domain.KindSchema, Message: "no time column"}}
}

var errSinkDown = errors.New("sink down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	cycle   *pipeline.Cycle
	cache   *cache.TTL
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newHarness(t *testing.T, src pipeline.Sources, ttl time.Duration) harness {
	t.Helper()

	fc := clockwork.NewFakeClockAt(testNow)
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })

	synth, err := domain.NewSynthesizer(domain.ProfileCalm, 17)
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	c := cache.New(fc, metrics)
	return harness{
		cycle:   pipeline.NewCycle(src, c, ttl, synth, domain.NewEngine(17), fc, discardLogger(), metrics),
		cache:   c,
		clock:   fc,
		metrics: metrics,
	}
}
