package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives timetable pipeline events.
type Recorder interface {
	// CacheLookup is called once per cache read with the cache name.
	CacheLookup(cache string, hit bool)
	// UpstreamRequest records one request to the timetable site.
	UpstreamRequest(endpoint string, err error, d time.Duration)
	// MonthFetchFailed records a month skipped during schedule assembly.
	MonthFetchFailed(fetchKey int)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) CacheLookup(string, bool)                     {}
func (NopRecorder) UpstreamRequest(string, error, time.Duration) {}
func (NopRecorder) MonthFetchFailed(int)                         {}

// PromRecorder exports pipeline events as Prometheus metrics.
type PromRecorder struct {
	cacheLookups  *prometheus.CounterVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	monthFailures prometheus.Counter
}

// NewPromRecorder registers the collectors on reg. If reg is nil, the default
// registerer is used. Collectors that are already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_upstream_requests_total",
		Help: "Requests sent to the timetable site",
	}, []string{"endpoint", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_upstream_request_seconds",
		Help:    "Latency of requests sent to the timetable site",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	monthFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_month_fetch_failures_total",
		Help: "Months skipped during schedule assembly because the event fetch failed",
	})

	var err error
	if cacheLookups, err = register(reg, cacheLookups); err != nil {
		return nil, err
	}
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if monthFailures, err = register(reg, monthFailures); err != nil {
		return nil, err
	}
	return &PromRecorder{
		cacheLookups:  cacheLookups,
		requests:      requests,
		latency:       latency,
		monthFailures: monthFailures,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (r *PromRecorder) UpstreamRequest(endpoint string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.requests.WithLabelValues(endpoint, status).Inc()
	r.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *PromRecorder) MonthFetchFailed(int) {
	r.monthFailures.Inc()
}
