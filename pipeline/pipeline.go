package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-storefront/models"
	"github.com/aluiziolira/go-scrape-storefront/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrUnknownCollection is returned for products of a collection the pipeline did not start.
	ErrUnknownCollection = errors.New("pipeline: unknown collection")
	// ErrCollectionMismatch is returned for a product labelled with another collection's name.
	ErrCollectionMismatch = errors.New("pipeline: product belongs to another collection")
)

// OutputWriter defines the interface for report output.
type OutputWriter interface {
	Write(report models.CrawlReport) error
	Validate() error
}

// Pipeline accumulates collection results in discovery order and hands the
// finished report to the writer exactly once, on Close.
type Pipeline struct {
	writer OutputWriter

	report  models.CrawlReport
	started map[*models.CollectionResult]map[string]struct{}

	metrics metrics

	mu     sync.Mutex // guards report/started/closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline writing to writer.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:   writer,
		report:   make(models.CrawlReport, 0),
		started:  make(map[*models.CollectionResult]map[string]struct{}),
		metrics:  newMetrics(),
		shutdown: make(chan struct{}),
	}
}

// StartCollection appends an empty result for summary to the report.
func (p *Pipeline) StartCollection(summary models.CollectionSummary) (*models.CollectionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPipelineClosed
	}

	result := models.NewCollectionResult(summary)
	p.report = append(p.report, result)
	p.started[result] = make(map[string]struct{})
	p.metrics.incrementCollections()
	return result, nil
}

// Process appends products to collection in the given order. Every product
// must already carry the collection's name; otherwise nothing is appended and
// ErrCollectionMismatch is returned. Records failing validation are kept and
// counted as validation warnings.
func (p *Pipeline) Process(collection *models.CollectionResult, products ...*models.ProductRecord) error {
	if len(products) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPipelineClosed
	}
	seen, ok := p.started[collection]
	if !ok {
		return ErrUnknownCollection
	}

	for _, product := range products {
		if product != nil && product.CollectionName != collection.Name {
			return fmt.Errorf("%w: %q is labelled %q, want %q", ErrCollectionMismatch, product.Title, product.CollectionName, collection.Name)
		}
	}

	for _, product := range products {
		if product == nil {
			continue
		}

		if err := parser.ValidateProduct(product); err != nil {
			p.metrics.addValidation("invalid_record")
			slog.Debug("product validation warning",
				slog.String("collection", collection.Name),
				slog.Any("error", err),
			)
		}
		if product.ProductURL != "" {
			if _, dup := seen[product.ProductURL]; dup {
				p.metrics.addValidation("duplicate_url")
			}
			seen[product.ProductURL] = struct{}{}
		}

		collection.Products = append(collection.Products, product)
		p.metrics.incrementProcessed()
	}
	return nil
}

// Close stops accepting work and writes the report. Later calls return the
// result of the first one.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		report := p.report
		p.mu.Unlock()
		p.signalShutdown()

		if err := p.writer.Write(report); err != nil {
			p.setErr(fmt.Errorf("write report: %w", err))
		}
	})
	return p.Err()
}

// Discard stops accepting work without writing anything.
func (p *Pipeline) Discard() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.signalShutdown()
	})
}

// Report returns the collections accumulated so far.
func (p *Pipeline) Report() models.CrawlReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(models.CrawlReport, len(p.report))
	copy(out, p.report)
	return out
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Int64("collections", metrics["collections"].(int64)),
					slog.Int64("processed_products", metrics["processed_products"].(int64)),
					slog.Int("validation_warnings", len(metrics["validation_warnings"].(map[string]int))),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	p.err = err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu          sync.Mutex
	collections int64
	processed   int64
	validation  map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementCollections() {
	m.mu.Lock()
	m.collections++
	m.mu.Unlock()
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"collections":         m.collections,
		"processed_products":  m.processed,
		"validation_warnings": copyValidation,
	}
}
