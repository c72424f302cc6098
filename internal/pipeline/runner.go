package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/robfig/cron/v3"
)

// Sink receives every snapshot the runner produces.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Runner drives the refresh loop and holds the latest snapshot.
type Runner struct {
	cycle    *Cycle
	interval time.Duration
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics

	// mu serializes cycles so a manual refresh never overlaps a scheduled one.
	mu      sync.Mutex
	psiBits atomic.Uint64
	latest  atomic.Pointer[domain.Snapshot]
}

// NewRunner creates a Runner that refreshes every interval, starting from psi.
func NewRunner(cycle *Cycle, interval time.Duration, psi float64, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) (*Runner, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("refresh interval must be at least 1s, got %s", interval)
	}
	if err := domain.ValidatePsi(psi); err != nil {
		return nil, err
	}
	r := &Runner{
		cycle:    cycle,
		interval: interval,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
	}
	r.psiBits.Store(math.Float64bits(psi))
	return r, nil
}

// CheckReadiness returns nil once the first snapshot has been produced.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.latest.Load() == nil {
		return errors.New("no snapshot has been produced yet")
	}
	return nil
}

// Latest returns the most recent snapshot, if any.
func (r *Runner) Latest() (domain.Snapshot, bool) {
	snap := r.latest.Load()
	if snap == nil {
		return domain.Snapshot{}, false
	}
	return *snap, true
}

// Psi returns the operator parameter used by the next cycle.
func (r *Runner) Psi() float64 {
	return math.Float64frombits(r.psiBits.Load())
}

// SetPsi validates and stores a new operator parameter, then refreshes so the
// latest snapshot reflects it.
func (r *Runner) SetPsi(ctx context.Context, psi float64) (domain.Snapshot, error) {
	if err := domain.ValidatePsi(psi); err != nil {
		return domain.Snapshot{}, err
	}
	r.psiBits.Store(math.Float64bits(psi))
	r.logger.Info("psi updated", "psi", psi)
	return r.Refresh(ctx)
}

// Run refreshes once immediately, then on every interval until ctx is
// cancelled. It waits for an in-flight cycle before returning.
func (r *Runner) Run(ctx context.Context) error {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := sched.AddFunc(spec, func() { r.refreshLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", spec, err)
	}

	r.logger.Info("runner started", "interval", r.interval, "psi", r.Psi(), "sinks", len(r.sinks))
	r.metrics.RunnerActive.Set(1)
	defer r.metrics.RunnerActive.Set(0)

	r.refreshLogged(ctx)
	sched.Start()

	<-ctx.Done()
	r.logger.Info("runner stopping", "reason", ctx.Err())
	<-sched.Stop().Done()
	return nil
}

// Refresh runs one cycle with the current psi, stores the snapshot and
// publishes it to every sink. A snapshot finished after ctx is done is
// discarded.
func (r *Runner) Refresh(ctx context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.cycle.Run(ctx, r.Psi())
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	r.latest.Store(&snap)
	r.publish(ctx, snap)
	return snap, nil
}

func (r *Runner) refreshLogged(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("refresh failed", "error", err)
	}
}

func (r *Runner) publish(ctx context.Context, snap domain.Snapshot) {
	for _, s := range r.sinks {
		if err := s.Publish(ctx, snap); err != nil {
			r.logger.Error("publish snapshot failed", "sink", s.Name(), "snapshot_id", snap.ID, "error", err)
			r.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
		}
	}
}
