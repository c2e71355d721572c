package observability

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metrics holds the service's counters. A nil *Metrics records nothing, so
// callers never need to check whether metrics are enabled.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	illustrations *CounterVec
	generations   *CounterVec
	genDuration   *HistogramVec
	rateLimited   *CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sb_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sb_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 120, 600},
		),
		apiInflight:   NewGauge("sb_api_inflight_requests", "In-flight API requests."),
		illustrations: NewCounterVec("sb_illustrations_total", "Illustrated pages by outcome.", []string{"outcome"}),
		generations:   NewCounterVec("sb_book_generations_total", "Book generations by status.", []string{"status"}),
		genDuration: NewHistogramVec(
			"sb_book_generation_duration_seconds",
			"Wall time of one book generation.",
			[]string{"status"},
			[]float64{10, 30, 60, 120, 300, 600, 1200},
		),
		rateLimited: NewCounterVec("sb_rate_limited_total", "Requests rejected by the per-user limiter.", []string{"route"}),
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveIllustration(outcome string) {
	if m != nil {
		m.illustrations.Inc(outcome)
	}
}

func (m *Metrics) ObserveGeneration(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generations.Inc(status)
	m.genDuration.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncRateLimited(route string) {
	if m != nil {
		m.rateLimited.Inc(route)
	}
}

// ServeHTTP exposes the collectors in the Prometheus text format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.illustrations,
		m.generations,
		m.genDuration,
		m.rateLimited,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
