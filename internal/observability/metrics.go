package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "wikimatch"

// Metrics tracks operational counters for a run. Each instance owns a private
// registry so tests and repeated runs never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	APIRequests       prometheus.Counter
	APIRetries        prometheus.Counter
	APIFailures       prometheus.Counter
	CacheHits         prometheus.Counter
	RequestDuration   prometheus.Histogram
	PagesDownloaded   prometheus.Counter
	PagesSkipped      prometheus.Counter
	PagesProcessed    prometheus.Counter
	MatchesExtracted  prometheus.Counter
	DuplicatesDropped prometheus.Counter
	RecordsStored     prometheus.Counter

	server *http.Server
	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		registry:    reg,
		APIRequests: counter("api_requests_total", "API requests sent over the network"),
		APIRetries:  counter("api_retries_total", "API requests retried after a retryable failure"),
		APIFailures: counter("api_failures_total", "API requests that failed permanently"),
		CacheHits:   counter("cache_hits_total", "API responses served from the local cache"),
		RequestDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of network API requests",
			Buckets:   prometheus.DefBuckets,
		}),
		PagesDownloaded:   counter("pages_downloaded_total", "Tournament pages fetched and stored"),
		PagesSkipped:      counter("pages_skipped_total", "Tournament pages skipped because they were already stored"),
		PagesProcessed:    counter("pages_processed_total", "Tournament pages run through extraction"),
		MatchesExtracted:  counter("matches_extracted_total", "Match records extracted before deduplication"),
		DuplicatesDropped: counter("duplicates_dropped_total", "Match records dropped as duplicates"),
		RecordsStored:     counter("records_stored_total", "Match records written to the dataset"),
		logger:            logger.With("component", "metrics"),
	}
}

// Registry exposes the private registry for handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// Snapshot returns the counter values keyed by short name.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"api_requests":       counterValue(m.APIRequests),
		"api_retries":        counterValue(m.APIRetries),
		"api_failures":       counterValue(m.APIFailures),
		"cache_hits":         counterValue(m.CacheHits),
		"pages_downloaded":   counterValue(m.PagesDownloaded),
		"pages_skipped":      counterValue(m.PagesSkipped),
		"pages_processed":    counterValue(m.PagesProcessed),
		"matches_extracted":  counterValue(m.MatchesExtracted),
		"duplicates_dropped": counterValue(m.DuplicatesDropped),
		"records_stored":     counterValue(m.RecordsStored),
	}
}

func counterValue(c prometheus.Counter) int64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil || out.Counter == nil {
		return 0
	}
	return int64(out.Counter.GetValue())
}
