package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"solarguardian/internal/aggregator"
	"solarguardian/internal/config"
	"solarguardian/internal/fetchers"
	"solarguardian/internal/logger"
	"solarguardian/internal/metrics"
	"solarguardian/internal/mocks"
	"solarguardian/internal/scheduler"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server represents the main application server
type Server struct {
	Config     *config.Config
	Source     fetchers.Source
	Cache      *fetchers.CachedSource
	Aggregator *aggregator.Aggregator
	Metrics    *metrics.Metrics
	Warmer     *scheduler.Scheduler

	log *logger.Logger
	now func() time.Time
}

// Option customizes a Server
type Option func(*serverOptions)

type serverOptions struct {
	source fetchers.Source
	now    func() time.Time
}

// WithSource replaces the upstream source, bypassing both the HTTP fetcher
// and mockup mode. The cache still applies.
func WithSource(source fetchers.Source) Option {
	return func(o *serverOptions) {
		o.source = source
	}
}

// WithClock overrides the clock used for report and health timestamps
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) {
		o.now = now
	}
}

// NewServer wires the upstream source, cache, normalizer, aggregator,
// metrics and the optional cache warmer from cfg
func NewServer(cfg *config.Config, log *logger.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}
	o := serverOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.New()

	source := o.source
	switch {
	case source != nil:
	case cfg.MockupMode:
		mock, err := mocks.NewMockService()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mock service: %w", err)
		}
		log.Info("Mockup mode enabled - serving embedded NOAA fixtures")
		source = mock
	default:
		source = fetchers.NewDataFetcher(fetchers.FetcherOptions{
			Timeout:         cfg.HTTPTimeout,
			Retries:         cfg.UpstreamRetries,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
			UserAgent:       fmt.Sprintf("%s/%s", cfg.AppName, config.GetVersion()),
			Observer:        m,
			Logger:          log,
		})
	}

	s := &Server{
		Config:  cfg,
		Metrics: m,
		log:     log.WithComponent("server"),
		now:     o.now,
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		s.Cache = fetchers.NewCachedSource(source, ttl, m)
		source = s.Cache
	}
	s.Source = source

	normalizer := fetchers.NewDataNormalizer(fetchers.NormalizerOptions{
		StrictFlares:   cfg.StrictFlareRows(),
		ClassifyStorms: cfg.ClassifyStorms,
		Observer:       m,
		Logger:         log,
	})
	s.Aggregator = aggregator.New(cfg, source, normalizer, log, aggregator.WithClock(o.now))

	if cfg.CacheWarmInterval > 0 {
		if s.Cache == nil {
			log.Warn("CACHE_WARM_INTERVAL ignored because caching is disabled")
		} else {
			s.Warmer = scheduler.New(cfg.CacheWarmInterval, 2*cfg.HTTPTimeout, s.Aggregator, log)
		}
	}

	return s, nil
}

// Start launches background work
func (s *Server) Start() error {
	if s.Warmer != nil {
		if err := s.Warmer.Start(); err != nil {
			return fmt.Errorf("failed to start cache warmer: %w", err)
		}
	}
	return nil
}

// Router configures HTTP routes for the server
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.Metrics.Middleware)

	router.HandleFunc("/", s.HandleRoot).Methods(http.MethodGet)
	router.HandleFunc("/api/solar-data", s.HandleSolarData).Methods(http.MethodGet)
	router.HandleFunc("/api/health", s.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	return router
}

// Handler returns the router wrapped in CORS, request ID, access logging
// and panic recovery
func (s *Server) Handler() http.Handler {
	return s.wrap(s.Router())
}

func (s *Server) wrap(h http.Handler) http.Handler {
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.log}),
		handlers.PrintRecoveryStack(false),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.accessLog)
	h = requestID(h)
	return corsPolicy().Handler(h)
}

// Close cleans up server resources
func (s *Server) Close() error {
	if s.Warmer != nil {
		s.Warmer.Stop()
	}
	return nil
}

// corsPolicy allows any origin, method and header with credentials. The
// request origin is echoed back since browsers reject "*" with credentials.
func corsPolicy() *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc: func(string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}
