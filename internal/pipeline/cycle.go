package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/cache"
	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// SpaceWeatherSource provides the geomagnetic and solar-wind readings. Both
// methods return a fallback reading instead of an error.
type SpaceWeatherSource interface {
	Geomag(ctx context.Context) domain.GeomagReading
	SolarWind(ctx context.Context) domain.SolarWindReading
}

// SeismicSource provides the local earthquake catalog.
type SeismicSource interface {
	Seismic(ctx context.Context) (domain.SeismicTable, error)
}

// CMESource provides the coronal mass ejection summary.
type CMESource interface {
	CME(ctx context.Context) domain.CMEStatus
}

// Sources groups the upstream feeds of one cycle. CME is optional.
type Sources struct {
	SpaceWeather SpaceWeatherSource
	Seismic      SeismicSource
	CME          CMESource
}

// Cycle runs one fetch-evaluate pass over all feeds.
type Cycle struct {
	sources Sources
	cache   *cache.TTL
	ttl     time.Duration
	synth   *domain.Synthesizer
	engine  *domain.Engine
	horizon int
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCycle creates a Cycle. Feed results are cached for ttl; clock times each
// cycle.
func NewCycle(src Sources, c *cache.TTL, ttl time.Duration, synth *domain.Synthesizer, engine *domain.Engine, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cycle {
	return &Cycle{
		sources: src,
		cache:   c,
		ttl:     ttl,
		synth:   synth,
		engine:  engine,
		horizon: domain.ForecastHorizon,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Run gathers every feed concurrently, evaluates the metrics and returns the
// assembled snapshot. Feed failures never fail the cycle; only an invalid psi
// does.
func (c *Cycle) Run(ctx context.Context, psi float64) (domain.Snapshot, error) {
	if err := domain.ValidatePsi(psi); err != nil {
		return domain.Snapshot{}, err
	}
	start := c.clock.Now()

	in := c.gather(ctx)

	assessment, err := c.engine.Evaluate(psi, in.Seismic)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("evaluate metrics: %w", err)
	}

	snap := domain.NewSnapshot(psi, in, assessment, domain.GenerateForecast(psi, c.horizon))
	c.record(snap, c.clock.Since(start))
	return snap, nil
}

func (c *Cycle) gather(ctx context.Context) domain.Inputs {
	var (
		geomag  domain.GeomagReading
		solar   domain.SolarWindReading
		seismic domain.SeismicTable
		cme     *domain.CMEStatus
	)

	// Every fetch returns a usable value, so the group never cancels.
	var g errgroup.Group
	g.Go(func() error {
		geomag = cache.GetOrFetch(ctx, c.cache, domain.FeedGeomag, c.ttl, c.sources.SpaceWeather.Geomag)
		return nil
	})
	g.Go(func() error {
		solar = cache.GetOrFetch(ctx, c.cache, domain.FeedSolarWind, c.ttl, c.sources.SpaceWeather.SolarWind)
		return nil
	})
	g.Go(func() error {
		seismic = cache.GetOrFetch(ctx, c.cache, domain.FeedSeismic, c.ttl, c.seismicOrSynthetic)
		return nil
	})
	if c.sources.CME != nil {
		g.Go(func() error {
			status := cache.GetOrFetch(ctx, c.cache, domain.FeedCME, c.ttl, c.sources.CME.CME)
			cme = &status
			return nil
		})
	}
	_ = g.Wait()

	return domain.Inputs{Geomag: geomag, Solar: solar, Seismic: seismic, CME: cme}
}

// seismicOrSynthetic is the seismic fetch as seen by the cache: a failed or
// empty catalog is replaced by a synthetic table, which is then cached like a
// live one.
func (c *Cycle) seismicOrSynthetic(ctx context.Context) domain.SeismicTable {
	table, err := c.sources.Seismic.Seismic(ctx)
	if err == nil && table.Len() > 0 {
		return table
	}
	if err == nil {
		err = domain.ErrEmptyTable
	}
	c.logger.Warn("seismic catalog unusable, substituting synthetic table",
		"profile", c.synth.Profile().Name,
		"error", err,
	)
	return c.synth.Synthesize()
}

func (c *Cycle) record(snap domain.Snapshot, elapsed time.Duration) {
	c.metrics.CyclesTotal.Inc()
	c.metrics.CycleDuration.Observe(elapsed.Seconds())
	c.metrics.EII.Set(snap.EII)
	c.metrics.CCI.Set(snap.CCI)
	c.metrics.KpIndex.Set(snap.Geomag.KpIndex)
	c.metrics.Psi.Set(snap.Psi)

	for _, feed := range []string{domain.FeedGeomag, domain.FeedSolarWind, domain.FeedSeismic, domain.FeedCME} {
		c.metrics.FeedFallback.WithLabelValues(feed).Set(0)
	}
	degraded := snap.DegradedFeeds()
	for _, feed := range degraded {
		c.metrics.FeedFallback.WithLabelValues(feed).Set(1)
	}

	c.logger.Info("cycle complete",
		"snapshot_id", snap.ID,
		"phase", snap.Phase,
		"eii", snap.EII,
		"cci", snap.CCI,
		"seismic_events", snap.Seismic.Len(),
		"degraded", degraded,
		"duration", elapsed,
	)
}
