package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"solarguardian/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Fetch outcomes reported to the Observer
const (
	OutcomeOK          = "ok"
	OutcomeTransport   = "transport_error"
	OutcomeStatus      = "bad_status"
	OutcomeMalformed   = "malformed_body"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeCanceled    = "canceled"
)

var (
	ErrTransport     = errors.New("upstream transport failure")
	ErrStatus        = errors.New("upstream returned non-2xx status")
	ErrMalformedBody = errors.New("upstream body is not valid JSON")
)

// Endpoint names an upstream JSON document
type Endpoint struct {
	Name string
	URL  string
}

// Result is the outcome of a best-effort fetch: either a JSON document or
// nothing. Failures are never surfaced as errors past the fetcher.
type Result struct {
	body    json.RawMessage
	present bool
}

// Present wraps a fetched JSON document
func Present(body json.RawMessage) Result {
	return Result{body: body, present: true}
}

// Absent is the no-data result
func Absent() Result {
	return Result{}
}

// Value returns the document and whether one was fetched
func (r Result) Value() (json.RawMessage, bool) {
	return r.body, r.present
}

// Source fetches upstream documents
type Source interface {
	Fetch(ctx context.Context, ep Endpoint) Result
}

// Observer receives fetch, cache and normalization events. The metrics
// package provides the Prometheus implementation.
type Observer interface {
	FetchCompleted(source, outcome string, elapsed time.Duration)
	CacheLookup(source string, hit bool)
	BreakerStateChanged(source string, state gobreaker.State)
	RowsSkipped(source string, n int)
}

type nopObserver struct{}

func (nopObserver) FetchCompleted(string, string, time.Duration) {}
func (nopObserver) CacheLookup(string, bool)                     {}
func (nopObserver) BreakerStateChanged(string, gobreaker.State)  {}
func (nopObserver) RowsSkipped(string, int)                      {}

// FetcherOptions configures the HTTP fetcher
type FetcherOptions struct {
	Timeout         time.Duration
	Retries         int
	BreakerFailures uint32
	BreakerCooldown time.Duration
	UserAgent       string
	Observer        Observer
	Logger          *logger.Logger
}

// DataFetcher performs single GETs against upstream endpoints. Each endpoint
// has its own circuit breaker.
type DataFetcher struct {
	client   *resty.Client
	opts     FetcherOptions
	observer Observer
	log      *logger.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewDataFetcher creates a new data fetcher instance
func NewDataFetcher(opts FetcherOptions) *DataFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = time.Minute
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	log := opts.Logger.WithComponent("fetcher")

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.Retries)
	client.SetRetryWaitTime(2 * time.Second)
	client.SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetLogger(log)

	return &DataFetcher{
		client:   client,
		opts:     opts,
		observer: opts.Observer,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Fetch GETs the endpoint and returns its JSON body. Transport errors,
// non-2xx statuses, unparseable bodies and an open breaker all yield Absent.
func (f *DataFetcher) Fetch(ctx context.Context, ep Endpoint) Result {
	start := time.Now()

	out, err := f.breaker(ep).Execute(func() (interface{}, error) {
		return f.get(ctx, ep.URL)
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := outcomeFor(err)
		f.observer.FetchCompleted(ep.Name, outcome, elapsed)
		f.log.WarnErr("Upstream fetch failed", err, logger.Fields{
			"source":     ep.Name,
			"url":        ep.URL,
			"outcome":    outcome,
			"elapsed_ms": elapsed.Milliseconds(),
		})
		return Absent()
	}

	body := out.(json.RawMessage)
	f.observer.FetchCompleted(ep.Name, OutcomeOK, elapsed)
	f.log.Debug("Upstream fetched", logger.Fields{
		"source":     ep.Name,
		"bytes":      len(body),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	return Present(body)
}

func (f *DataFetcher) get(ctx context.Context, url string) (json.RawMessage, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || !json.Valid(body) {
		return nil, ErrMalformedBody
	}

	return json.RawMessage(body), nil
}

func (f *DataFetcher) breaker(ep Endpoint) *gobreaker.CircuitBreaker {
	key := ep.Name + " " + ep.URL

	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[key]; ok {
		return cb
	}

	failures := f.opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        ep.Name,
		MaxRequests: 1,
		Timeout:     f.opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a caller going away says nothing about the upstream
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.observer.BreakerStateChanged(name, to)
			f.log.Warn("Circuit breaker state changed", logger.Fields{
				"source": name,
				"from":   from.String(),
				"to":     to.String(),
			})
		},
	})
	f.breakers[key] = cb
	return cb
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return OutcomeBreakerOpen
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, ErrStatus):
		return OutcomeStatus
	case errors.Is(err, ErrMalformedBody):
		return OutcomeMalformed
	default:
		return OutcomeTransport
	}
}
