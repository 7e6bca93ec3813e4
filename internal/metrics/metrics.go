// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pipelineURLsTotal           *prometheus.CounterVec
	pipelineRowsTotal           prometheus.Counter
	scrapeDurationSeconds       *prometheus.HistogramVec
	modelRequestsTotal          *prometheus.CounterVec
	modelFallthroughDepth       prometheus.Histogram
	storeSyncTotal              prometheus.Counter
	batchItemsTotal             *prometheus.CounterVec
	pipelineDurationSeconds     prometheus.Histogram
	pipelineThrottleWaitSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		pipelineURLsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_urls_total",
				Help: "URLs processed by the pipeline, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		pipelineRowsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_rows_inserted_total",
				Help: "Content rows written to the store.",
			},
		)

		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrape_duration_seconds",
				Help:    "Latency of remote scrape calls, labeled by provider.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		)

		modelRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_requests_total",
				Help: "Generation requests issued, labeled by model and result.",
			},
			[]string{"model", "result"},
		)

		modelFallthroughDepth = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "model_fallthrough_depth",
				Help:    "How many candidates were tried before one answered.",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		)

		storeSyncTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "store_info_sync_total",
				Help: "Times a store's live-news text was overwritten by a crawl.",
			},
		)

		batchItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batch_items_total",
				Help: "Batch collection items, labeled by result.",
			},
			[]string{"result"},
		)

		pipelineDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_duration_seconds",
				Help:    "End-to-end latency of one URL through the pipeline.",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
			},
		)

		pipelineThrottleWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_throttle_wait_seconds",
				Help:    "Inter-item politeness pauses during batch collection.",
				Buckets: []float64{0.5, 1, 2, 3, 5, 10},
			},
		)
	})
}

// SanitizeSite extracts a lowercase hostname for use as a metric label.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePipeline records one URL's terminal outcome and latency.
func ObservePipeline(site string, outcome string, duration time.Duration) {
	pipelineURLsTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
	pipelineDurationSeconds.Observe(duration.Seconds())
}

// ObserveRowsInserted adds to the inserted-rows counter.
func ObserveRowsInserted(n int) {
	if n > 0 {
		pipelineRowsTotal.Add(float64(n))
	}
}

// ObserveScrape records the latency of a scrape call.
func ObserveScrape(provider string, duration time.Duration) {
	scrapeDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveModelRequest counts one generation attempt for a candidate model.
func ObserveModelRequest(model string, result string) {
	modelRequestsTotal.WithLabelValues(model, result).Inc()
}

// ObserveFallthroughDepth records which candidate finally answered (1-based).
func ObserveFallthroughDepth(depth int) {
	modelFallthroughDepth.Observe(float64(depth))
}

// ObserveStoreSync counts a raw_info overwrite triggered by the pipeline.
func ObserveStoreSync() {
	storeSyncTotal.Inc()
}

// ObserveBatchItem counts one batch item result.
func ObserveBatchItem(result string) {
	batchItemsTotal.WithLabelValues(result).Inc()
}

// ObserveThrottleWait records an inter-item pause duration.
func ObserveThrottleWait(duration time.Duration) {
	pipelineThrottleWaitSeconds.Observe(duration.Seconds())
}
