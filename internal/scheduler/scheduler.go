// Package scheduler drives the global check tick and the daily retention
// sweep, and turns status transitions into alerts.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/metrics"
	"github.com/hamed0406/uptimatum/internal/probe"
	"github.com/hamed0406/uptimatum/internal/recorder"
	"github.com/hamed0406/uptimatum/internal/repo"
	"github.com/hamed0406/uptimatum/internal/retention"
)

const (
	DefaultInterval          = 30 * time.Second
	DefaultMaxConcurrent     = 64
	DefaultRetentionSchedule = "0 2 * * *"
)

var ErrStarted = errors.New("scheduler already started")

type Config struct {
	// Interval between ticks; every active endpoint is probed on each tick.
	Interval time.Duration
	// MaxConcurrent caps in-flight probe pipelines. 0 means unbounded.
	MaxConcurrent int
	// RetentionSchedule is a cron spec in server local time. Empty disables
	// the sweep.
	RetentionSchedule string

	Sweeper *retention.Sweeper
	Alerter *Alerter
}

type Scheduler struct {
	logger   *zap.Logger
	registry repo.EndpointRegistry
	checker  probe.Checker
	writer   *recorder.Writer
	cfg      Config
	sem      *semaphore.Weighted

	mu       sync.Mutex
	cron     *cron.Cron
	cancel   context.CancelFunc
	loopDone chan struct{}
	inflight sync.WaitGroup
}

func New(
	logger *zap.Logger,
	registry repo.EndpointRegistry,
	checker probe.Checker,
	writer *recorder.Writer,
	cfg Config,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxConcurrent < 0 {
		cfg.MaxConcurrent = 0
	}
	s := &Scheduler{
		logger:   logger,
		registry: registry,
		checker:  checker,
		writer:   writer,
		cfg:      cfg,
	}
	if cfg.MaxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return s
}

// Start fires one tick immediately, then one per Interval, and registers
// the retention sweep. It returns once the loop is running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if s.cfg.Sweeper != nil && s.cfg.RetentionSchedule != "" {
		_, err := c.AddFunc(s.cfg.RetentionSchedule, func() { s.sweep(runCtx) })
		if err != nil {
			cancel()
			return err
		}
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	go s.loop(runCtx, s.loopDone)

	s.logger.Info("scheduler_started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("max_concurrent", s.cfg.MaxConcurrent),
		zap.String("retention_schedule", s.cfg.RetentionSchedule),
	)
	return nil
}

// Stop halts the tick loop and the cron, then waits for in-flight
// pipelines until ctx expires. In-flight probes are not cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, loopDone, c := s.cancel, s.loopDone, s.cron
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	<-loopDone
	cronDone := c.Stop()

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		<-cronDone.Done()
		close(drained)
	}()

	select {
	case <-drained:
		s.logger.Info("scheduler_stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler_drain_timeout", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	s.goTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.goTick(ctx)
		}
	}
}

// goTick runs a tick without blocking the ticker; a slow tick may overlap
// the next one.
func (s *Scheduler) goTick(ctx context.Context) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("check_tick_error", zap.Error(err))
		}
	}()
}

// Tick probes every active endpoint and records each result, returning when
// all pipelines of this tick have finished. Only a failure to list the
// registry is returned; per-endpoint failures are logged.
func (s *Scheduler) Tick(ctx context.Context) error {
	tickID := uuid.NewString()
	metrics.CheckTicks.Inc()

	endpoints, err := s.registry.ListActive(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("check_tick",
		zap.String("tick_id", tickID),
		zap.Int("endpoints", len(endpoints)),
	)

	// Pipelines outlive cancellation of ctx; the probe timeout bounds them.
	pctx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, ep := range endpoints {
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				s.logger.Info("check_tick_aborted",
					zap.String("tick_id", tickID),
					zap.Error(err),
				)
				break
			}
		}
		wg.Add(1)
		go func(ep domain.Endpoint) {
			defer wg.Done()
			if s.sem != nil {
				defer s.sem.Release(1)
			}
			s.check(pctx, tickID, ep)
		}(ep)
	}
	wg.Wait()
	return nil
}

func (s *Scheduler) check(ctx context.Context, tickID string, ep domain.Endpoint) {
	metrics.InflightChecks.Inc()
	defer metrics.InflightChecks.Dec()

	res := s.checker.Check(ctx, ep)
	metrics.Probes.WithLabelValues(string(res.Status)).Inc()
	metrics.ProbeDuration.Observe(float64(res.ResponseTimeMS) / 1000)

	out, err := s.writer.Record(ctx, res)
	if err != nil {
		fields := []zap.Field{
			zap.String("tick_id", tickID),
			zap.Int64("endpoint_id", int64(ep.ID)),
			zap.String("url", ep.URL),
			zap.Error(err),
		}
		switch {
		case errors.Is(err, repo.ErrBusy):
			metrics.CheckWriteErrors.WithLabelValues("busy").Inc()
			s.logger.Debug("check_write_skipped", fields...)
		case errors.Is(err, repo.ErrNotFound):
			metrics.CheckWriteErrors.WithLabelValues("not_found").Inc()
			s.logger.Warn("check_write_error", fields...)
		default:
			metrics.CheckWriteErrors.WithLabelValues("store").Inc()
			s.logger.Warn("check_write_error", fields...)
		}
		return
	}

	metrics.CheckWrites.WithLabelValues(string(out.Decision)).Inc()
	s.logger.Debug("check_recorded",
		zap.String("tick_id", tickID),
		zap.Int64("endpoint_id", int64(ep.ID)),
		zap.String("status", string(res.Status)),
		zap.Int("response_time_ms", res.ResponseTimeMS),
		zap.String("decision", string(out.Decision)),
	)

	if s.cfg.Alerter != nil {
		s.cfg.Alerter.Observe(ctx, ep, out)
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.cfg.Sweeper.Sweep(ctx); err != nil {
		s.logger.Warn("retention_sweep_error", zap.Error(err))
	}
}
