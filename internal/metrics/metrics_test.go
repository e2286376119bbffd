package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
)

func TestFetchCompleted(t *testing.T) {
	m := New()

	m.FetchCompleted("solar_flare", "ok", 120*time.Millisecond)
	m.FetchCompleted("solar_flare", "ok", 80*time.Millisecond)
	m.FetchCompleted("solar_flare", "bad_status", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.fetchTotal.WithLabelValues("solar_flare", "ok")); got != 2 {
		t.Errorf("Expected 2 ok fetches, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetchTotal.WithLabelValues("solar_flare", "bad_status")); got != 1 {
		t.Errorf("Expected 1 bad_status fetch, got %v", got)
	}
}

func TestCacheLookup(t *testing.T) {
	m := New()

	m.CacheLookup("geomagnetic", true)
	m.CacheLookup("geomagnetic", false)
	m.CacheLookup("geomagnetic", true)

	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("geomagnetic", "hit")); got != 2 {
		t.Errorf("Expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("geomagnetic", "miss")); got != 1 {
		t.Errorf("Expected 1 miss, got %v", got)
	}
}

func TestBreakerStateChanged(t *testing.T) {
	m := New()

	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateOpen, 2},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateClosed, 0},
	}

	for _, tt := range tests {
		m.BreakerStateChanged("solar_flare", tt.state)
		if got := testutil.ToFloat64(m.cbState.WithLabelValues("solar_flare")); got != tt.want {
			t.Errorf("State %s: expected gauge %v, got %v", tt.state, tt.want, got)
		}
	}
}

func TestRowsSkipped(t *testing.T) {
	m := New()

	m.RowsSkipped("geomagnetic", 3)
	m.RowsSkipped("geomagnetic", 2)

	if got := testutil.ToFloat64(m.rowsSkipped.WithLabelValues("geomagnetic")); got != 5 {
		t.Errorf("Expected 5 skipped rows, got %v", got)
	}
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	m := New()

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/health", "GET", "418")); got != 2 {
		t.Errorf("Expected 2 recorded requests, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.FetchCompleted("solar_flare", "ok", time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		`solar_guardian_upstream_fetch_total{outcome="ok",source="solar_flare"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected exposition to contain %q", name)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	// Two instances must not collide on registration
	a := New()
	b := New()

	a.RowsSkipped("solar_flare", 1)
	if got := testutil.ToFloat64(b.rowsSkipped.WithLabelValues("solar_flare")); got != 0 {
		t.Errorf("Expected independent registries, got %v", got)
	}
}
