package aggregator

import (
	"context"
	"fmt"
	"time"

	"solarguardian/internal/config"
	"solarguardian/internal/fetchers"
	"solarguardian/internal/logger"
	"solarguardian/internal/models"

	"golang.org/x/sync/errgroup"
)

// Aggregator combines the flare and geomagnetic feeds into one report
type Aggregator struct {
	source      fetchers.Source
	normalizer  *fetchers.DataNormalizer
	flares      fetchers.Endpoint
	geomagnetic fetchers.Endpoint
	now         func() time.Time
	log         *logger.Logger
}

// Option customizes an Aggregator
type Option func(*Aggregator)

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// New creates an aggregator reading the endpoints named in cfg
func New(cfg *config.Config, source fetchers.Source, normalizer *fetchers.DataNormalizer, log *logger.Logger, opts ...Option) *Aggregator {
	if log == nil {
		log = logger.Discard()
	}
	a := &Aggregator{
		source:      source,
		normalizer:  normalizer,
		flares:      fetchers.Endpoint{Name: config.EndpointSolarFlare, URL: cfg.SolarFlareURL},
		geomagnetic: fetchers.Endpoint{Name: config.EndpointGeomagnetic, URL: cfg.GeomagneticURL},
		now:         time.Now,
		log:         log.WithComponent("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildReport fetches both feeds concurrently and assembles the report.
// An unavailable feed contributes an empty list; the only error is a strict
// flare policy rejecting the flare document.
func (a *Aggregator) BuildReport(ctx context.Context) (*models.AggregateReport, error) {
	start := time.Now()

	var (
		flares      []models.FlareReading
		geomagnetic []models.GeomagneticReading
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, ok := a.source.Fetch(gctx, a.flares).Value()
		if !ok {
			return nil
		}
		readings, err := a.normalizer.NormalizeFlares(body)
		if err != nil {
			return fmt.Errorf("failed to normalize flare data: %w", err)
		}
		flares = readings
		return nil
	})

	g.Go(func() error {
		body, ok := a.source.Fetch(gctx, a.geomagnetic).Value()
		if !ok {
			return nil
		}
		geomagnetic = a.normalizer.NormalizeGeomagnetic(body)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := models.NewAggregateReport(flares, geomagnetic, a.now())

	a.log.Info("Report assembled", logger.Fields{
		"flares":      len(report.Flares),
		"geomagnetic": len(report.Geomagnetic),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return report, nil
}
