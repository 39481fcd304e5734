package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry                *prometheus.Registry
	RequestsTotal           *prometheus.CounterVec
	RequestDuration         prometheus.Histogram
	CollectionsScrapedTotal prometheus.Counter
	ProductsScrapedTotal    prometheus.Counter
	ImagesDownloadedTotal   *prometheus.CounterVec
	ErrorsTotal             *prometheus.CounterVec
	ProgressTotal           prometheus.Gauge
	ProgressCurrent         prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	collections := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_collections_scraped_total",
			Help: "Total number of collections traversed.",
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_scraped_total",
			Help: "Total number of product records sent to the pipeline.",
		},
	)
	images := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_images_downloaded_total",
			Help: "Total number of images written to disk by kind.",
		},
		[]string{"kind"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by crawl stage and type.",
		},
		[]string{"stage", "error_type"},
	)
	progressTotal := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_progress_units_total",
			Help: "Work units expected for the current run.",
		},
	)
	progressCurrent := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_progress_units_done",
			Help: "Work units completed in the current run.",
		},
	)

	registry.MustRegister(requests, requestDuration, collections, products, images, errorsTotal, progressTotal, progressCurrent)

	return &Metrics{
		Registry:                registry,
		RequestsTotal:           requests,
		RequestDuration:         requestDuration,
		CollectionsScrapedTotal: collections,
		ProductsScrapedTotal:    products,
		ImagesDownloadedTotal:   images,
		ErrorsTotal:             errorsTotal,
		ProgressTotal:           progressTotal,
		ProgressCurrent:         progressCurrent,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncCollections increments the collections counter.
func (m *Metrics) IncCollections() {
	if m == nil {
		return
	}
	m.CollectionsScrapedTotal.Inc()
}

// IncProducts increments the products counter.
func (m *Metrics) IncProducts() {
	if m == nil {
		return
	}
	m.ProductsScrapedTotal.Inc()
}

// IncImages increments the downloaded images counter for a kind label.
func (m *Metrics) IncImages(kind string) {
	if m == nil {
		return
	}
	m.ImagesDownloadedTotal.WithLabelValues(kind).Inc()
}

// IncError increments the errors counter for a stage and type label.
func (m *Metrics) IncError(stage, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(stage, errorType).Inc()
}

// SetProgress publishes the progress counter.
func (m *Metrics) SetProgress(current, total int64) {
	if m == nil {
		return
	}
	m.ProgressCurrent.Set(float64(current))
	m.ProgressTotal.Set(float64(total))
}
