package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"attraction_registry/internal/domain"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "attractions", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "attractions", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "attractions", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "attractions", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms .. ~12.8s, past the lookup timeout
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "attractions", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	RegistryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "attractions", Name: "registry_events_total", Help: "Registry mutations by outcome."},
		[]string{"event"}, // created|endorsed|unchanged|deleted|error
	)
	ProximityScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "attractions", Name: "proximity_attractions_total", Help: "Attractions seen by nearby scans."},
		[]string{"result"}, // matched|excluded|skipped
	)
	ProximityLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attractions", Name: "proximity_query_duration_seconds",
		Help:    "Nearby scan duration seconds.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// Serve exposes reg on a separate listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// InitRegistry returns a fresh registry holding the service collectors plus
// the Go runtime and process collectors.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		RegistryEvents, ProximityScanned, ProximityLatency,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one outbound call; status 0 means no response (transport error).
func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRegistry(event string) {
	RegistryEvents.WithLabelValues(event).Inc()
}

// ObserveProximity splits a scan into matched, skipped (no usable location)
// and excluded (outside the radius).
func ObserveProximity(scanned, matched, skipped int, dur time.Duration) {
	ProximityScanned.WithLabelValues("matched").Add(float64(matched))
	ProximityScanned.WithLabelValues("skipped").Add(float64(skipped))
	ProximityScanned.WithLabelValues("excluded").Add(float64(scanned - matched - skipped))
	ProximityLatency.Observe(dur.Seconds())
}

// LabelErr maps err onto a low-cardinality kind for logs and labels.
func LabelErr(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}
