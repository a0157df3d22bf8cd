package collector

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/model"
	"hostmon-agent/internal/sampler"
)

type Samplers struct {
	CPU     sampler.Sampler[model.CPUSnapshot]
	Memory  sampler.Sampler[model.MemorySnapshot]
	Disk    sampler.Sampler[model.DiskSnapshot]
	Network sampler.Sampler[model.NetworkSnapshot]
}

type Intervals struct {
	CPU     time.Duration
	Memory  time.Duration
	Disk    time.Duration
	Network time.Duration
}

// Scheduler runs one refresh loop per category. Loops share nothing but the
// store and the status tracker, so a slow or failing probe only delays its own
// category.
type Scheduler struct {
	logger       *slog.Logger
	store        *cache.Store
	status       *Status
	samplers     Samplers
	intervals    Intervals
	errorBackoff time.Duration
	newTicker    func(time.Duration) Ticker
	now          func() time.Time
}

func NewScheduler(
	logger *slog.Logger,
	store *cache.Store,
	status *Status,
	samplers Samplers,
	intervals Intervals,
	errorBackoff time.Duration,
) *Scheduler {
	if errorBackoff < 0 {
		errorBackoff = 0
	}
	return &Scheduler{
		logger:       logger,
		store:        store,
		status:       status,
		samplers:     samplers,
		intervals:    intervals,
		errorBackoff: errorBackoff,
		newTicker:    newRealTicker,
		now:          time.Now,
	}
}

// Run blocks until ctx is cancelled and every loop has finished its current tick.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runLoop(gctx, s, s.samplers.CPU, s.store.CPU, s.intervals.CPU)
	})
	g.Go(func() error {
		return runLoop(gctx, s, s.samplers.Memory, s.store.Memory, s.intervals.Memory)
	})
	g.Go(func() error {
		return runLoop(gctx, s, s.samplers.Disk, s.store.Disk, s.intervals.Disk)
	})
	g.Go(func() error {
		return runLoop(gctx, s, s.samplers.Network, s.store.Network, s.intervals.Network)
	})
	return g.Wait()
}

func runLoop[T any](ctx context.Context, s *Scheduler, smp sampler.Sampler[T], slot *cache.Slot[T], interval time.Duration) error {
	logger := s.logger.With("category", smp.Category())
	ticker := s.newTicker(interval)
	defer ticker.Stop()

	logger.Debug("refresh loop started", "interval", interval)
	if err := refresh(ctx, s, smp, slot); err != nil {
		logger.Warn("initial sample failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Debug("refresh loop stopped")
			return nil
		case <-ticker.C():
			if ctx.Err() != nil {
				return nil
			}
			if err := refresh(ctx, s, smp, slot); err != nil {
				logger.Error("sample failed, keeping previous value", "error", err)
				s.sleepWithContext(ctx, s.errorBackoff)
			}
		}
	}
}

// refresh samples and writes. The probe runs detached from cancellation so an
// in-flight call completes and its result lands before the loop exits.
func refresh[T any](ctx context.Context, s *Scheduler, smp sampler.Sampler[T], slot *cache.Slot[T]) error {
	v, err := smp.Sample(context.WithoutCancel(ctx))
	at := s.now()
	if err != nil {
		s.status.RecordFailure(smp.Category(), at, err)
		return err
	}
	slot.Write(v, at)
	s.status.RecordSuccess(smp.Category(), at)
	return nil
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
