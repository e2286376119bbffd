package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"solarguardian/internal/logger"
	"solarguardian/internal/models"

	"github.com/go-co-op/gocron"
)

// ReportBuilder is the part of the aggregator the warmer drives
type ReportBuilder interface {
	BuildReport(ctx context.Context) (*models.AggregateReport, error)
}

// Scheduler periodically rebuilds the report so the upstream cache stays warm
type Scheduler struct {
	scheduler *gocron.Scheduler
	builder   ReportBuilder
	interval  time.Duration
	timeout   time.Duration
	log       *logger.Logger
	runs      atomic.Int64
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(interval, timeout time.Duration, builder ReportBuilder, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		builder:   builder,
		interval:  interval,
		timeout:   timeout,
		log:       log.WithComponent("scheduler"),
	}
}

// Start schedules the warm-up job, runs it once right away and starts the
// underlying scheduler. A non-positive interval schedules nothing.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("Cache warmer disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("Cache warmer started", logger.Fields{"interval": s.interval.String()})
	return nil
}

// Stop stops the scheduler and cancels any future jobs
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
		s.log.Info("Cache warmer stopped", logger.Fields{"runs": s.runs.Load()})
	}
}

// Runs reports how many warm-up jobs have completed
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.builder.BuildReport(ctx)
	s.runs.Add(1)
	if err != nil {
		s.log.WarnErr("Cache warm-up failed", err)
		return
	}

	s.log.Debug("Cache warmed", logger.Fields{
		"flares":      len(report.Flares),
		"geomagnetic": len(report.Geomagnetic),
	})
}
