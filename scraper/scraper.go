// Package scraper drives the two-phase crawl of a storefront catalog:
// collections are discovered and counted first, then traversed one by one.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-storefront/config"
	"github.com/aluiziolira/go-scrape-storefront/models"
	"github.com/aluiziolira/go-scrape-storefront/parser"
	"github.com/aluiziolira/go-scrape-storefront/pipeline"
)

// Crawl stages used for error accounting.
const (
	stageDiscovery   = "discovery"
	stageCount       = "count"
	stageCollection  = "collection"
	stageDescription = "description"
	stagePrice       = "price"
	stageAsset       = "asset"
	stageID          = "id"
)

// Scraper crawls one storefront. A Scraper runs once; it is not safe for
// concurrent use and issues one request at a time.
type Scraper struct {
	cfg        *config.Config
	base       *url.URL
	colly      *CollyFetcher
	fetcher    Fetcher
	downloader Downloader
	ids        IDGenerator
	reporter   ProgressReporter
	extractor  *parser.Extractor
	Metrics    *Metrics

	pages        *lru.Cache[string, []byte]
	descriptions *lru.Cache[string, string]

	state State

	requestCount     int
	errorCount       int
	imagesDownloaded int
	failedURLs       []string
	errorsByType     map[string]int
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the colly fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) {
		s.fetcher = f
	}
}

// WithTransport sets the HTTP transport of the default colly fetcher.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Scraper) {
		if s.colly != nil {
			s.colly.WithTransport(rt)
		}
	}
}

// WithDownloader replaces the downloader chosen from the configuration.
func WithDownloader(d Downloader) Option {
	return func(s *Scraper) {
		s.downloader = d
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scraper) {
		s.ids = g
	}
}

// WithProgressReporter sets where progress is displayed.
func WithProgressReporter(r ProgressReporter) Option {
	return func(s *Scraper) {
		s.reporter = r
	}
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	s := &Scraper{
		cfg:          cfg,
		base:         base,
		ids:          UUIDGenerator{},
		extractor:    parser.NewExtractor(cfg.Selectors),
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}
	s.colly = NewCollyFetcher(cfg, s.Metrics)
	s.fetcher = s.colly

	for _, opt := range opts {
		opt(s)
	}

	if s.downloader == nil {
		if cfg.DownloadImages {
			s.downloader = NewFileDownloader(FetcherFunc(s.fetch), cfg.ImageDir, base)
		} else {
			s.downloader = NoopDownloader{}
		}
	}

	if s.pages, err = newCache[[]byte](cfg.PageCacheSize); err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}
	if s.descriptions, err = newCache[string](cfg.DescriptionCacheSize); err != nil {
		return nil, fmt.Errorf("description cache: %w", err)
	}
	return s, nil
}

func newCache[V any](size int) (*lru.Cache[string, V], error) {
	if size <= 0 {
		return nil, nil
	}
	return lru.New[string, V](size)
}

// State returns the current phase of the run.
func (s *Scraper) State() State {
	return s.state
}

// Run crawls the storefront and streams collections through the pipeline.
//
// Only discovery failures and context cancellation end the run early; both
// return an error, leave the scraper in StateAborted and discard the
// pipeline without writing. Every other failure is logged, counted and
// skipped. On success the pipeline is closed, which writes the report.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.transition(StateDiscoveringCollections); err != nil {
		return nil, err
	}
	start := time.Now()

	summaries, err := s.discover(ctx)
	if err != nil {
		return nil, s.abort(p, err)
	}

	if err := s.downloader.Prepare(); err != nil {
		slog.Error("image downloads disabled", slog.Any("error", err))
		s.downloader = NoopDownloader{}
	}

	if err := s.transition(StateCountingWork); err != nil {
		return nil, err
	}
	counts, total := s.countWork(ctx, summaries)
	if err := ctx.Err(); err != nil {
		return nil, s.abort(p, err)
	}

	if err := s.transition(StateTraversing); err != nil {
		return nil, err
	}
	progress := NewProgress(s.reporter, s.Metrics)
	progress.Start(total)
	for i, summary := range summaries {
		if err := ctx.Err(); err != nil {
			progress.Finish()
			return nil, s.abort(p, err)
		}
		s.scrapeCollection(ctx, p, summary, counts[i], progress)
	}
	progress.Finish()
	if err := ctx.Err(); err != nil {
		return nil, s.abort(p, err)
	}

	if err := s.transition(StateFinalizing); err != nil {
		return nil, err
	}
	report := p.Report()
	if err := p.Close(); err != nil {
		_ = s.transition(StateAborted)
		return nil, fmt.Errorf("finalize report: %w", err)
	}
	if err := s.transition(StateDone); err != nil {
		return nil, err
	}

	return &models.ScraperResult{
		StartTime:        start,
		EndTime:          time.Now(),
		CollectionCount:  len(report),
		ProductCount:     report.ProductCount(),
		ImagesDownloaded: s.imagesDownloaded,
		ErrorCount:       s.errorCount,
		FailedURLs:       append([]string(nil), s.failedURLs...),
		ErrorsByType:     s.snapshotErrors(),
		RequestCount:     s.requestCount,
		ProgressTotal:    progress.Total(),
		ProgressCurrent:  progress.Current(),
	}, nil
}

func (s *Scraper) transition(next State) error {
	if !s.state.canTransition(next) {
		return fmt.Errorf("scraper: invalid transition %s -> %s", s.state, next)
	}
	slog.Debug("scraper state", slog.String("from", s.state.String()), slog.String("to", next.String()))
	s.state = next
	return nil
}

func (s *Scraper) abort(p *pipeline.Pipeline, err error) error {
	p.Discard()
	if transitionErr := s.transition(StateAborted); transitionErr != nil {
		slog.Debug("abort transition", slog.Any("error", transitionErr))
	}
	return err
}

// discover fetches the collections index and lists its collections.
func (s *Scraper) discover(ctx context.Context) ([]models.CollectionSummary, error) {
	indexURL, err := s.cfg.CollectionsURL()
	if err != nil {
		return nil, &DiscoveryError{URL: s.cfg.BaseURL, Err: err}
	}

	doc, err := s.loadDocument(ctx, indexURL, false)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.recordError(stageDiscovery, indexURL, err)
		return nil, &DiscoveryError{URL: indexURL, Err: err}
	}

	summaries := s.extractor.Collections(doc, s.base)
	if len(summaries) == 0 {
		s.recordError(stageDiscovery, indexURL, ErrNoCollections)
		return nil, &DiscoveryError{URL: indexURL, Err: ErrNoCollections}
	}

	slog.Info("collections discovered", slog.String("url", indexURL), slog.Int("collections", len(summaries)))
	return summaries, nil
}

// countWork fetches every collection page once and returns the product count
// per collection plus the total work units (collections + products). A page
// that cannot be fetched counts as zero products.
func (s *Scraper) countWork(ctx context.Context, summaries []models.CollectionSummary) ([]int64, int64) {
	counts := make([]int64, len(summaries))
	total := int64(len(summaries))

	for i, summary := range summaries {
		if ctx.Err() != nil {
			break
		}
		doc, err := s.loadDocument(ctx, summary.URL, true)
		if err != nil {
			s.recordError(stageCount, summary.URL, err)
			continue
		}
		counts[i] = int64(s.extractor.CountProducts(doc))
		total += counts[i]
	}

	slog.Debug("work counted", slog.Int64("units", total))
	return counts, total
}

// scrapeCollection traverses one collection. The collection is always added
// to the report, with no products when its page cannot be loaded.
func (s *Scraper) scrapeCollection(ctx context.Context, p *pipeline.Pipeline, summary models.CollectionSummary, counted int64, progress *Progress) {
	defer progress.Advance()

	result, err := p.StartCollection(summary)
	if err != nil {
		slog.Error("pipeline rejected collection", slog.String("collection", summary.Name), slog.Any("error", err))
		return
	}

	if summary.ImageURL != "" {
		s.downloadAsset(ctx, "collection", summary.ImageURL, summary.Name)
	}

	doc, err := s.loadDocument(ctx, summary.URL, true)
	if err != nil {
		s.recordError(stageCollection, summary.URL, err)
		progress.Grow(-counted)
		return
	}
	s.forgetPage(summary.URL)

	listings := s.extractor.Products(doc)
	progress.Grow(int64(len(listings)) - counted)

	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}
		product := s.buildProduct(ctx, result.Name, listing)
		if err := p.Process(result, product); err != nil {
			slog.Error("pipeline process error", slog.String("url", product.ProductURL), slog.Any("error", err))
		} else {
			s.Metrics.IncProducts()
		}
		progress.Advance()
	}

	s.Metrics.IncCollections()
	slog.Debug("collection scraped",
		slog.String("collection", summary.Name),
		slog.Int("products", len(result.Products)),
	)
}

// buildProduct turns a listing card of the named collection into a record.
// Failures degrade single fields: the description to "", prices to 0.
func (s *Scraper) buildProduct(ctx context.Context, collection string, listing parser.ProductListing) *models.ProductRecord {
	productURL := parser.ResolveURL(s.base, listing.Link)

	regular, err := parser.PriceToCents(listing.RegularPrice)
	if err != nil {
		s.recordError(stagePrice, productURL, err)
	}
	sale, err := parser.PriceToCents(listing.SalePrice)
	if err != nil && !errors.Is(err, parser.ErrEmptyPrice) {
		s.recordError(stagePrice, productURL, err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		s.recordError(stageID, productURL, err)
	}

	description := s.description(ctx, productURL)

	if listing.ImageURL != "" {
		s.downloadAsset(ctx, "product", listing.ImageURL, listing.Title)
	}

	return &models.ProductRecord{
		ID:                id,
		Title:             listing.Title,
		RegularPriceCents: regular,
		SalePriceCents:    sale,
		ImageURL:          listing.ImageURL,
		Description:       description,
		ProductURL:        productURL,
		CollectionName:    collection,
	}
}

// description fetches a product page and returns its plain-text description,
// or "" when the page cannot be fetched or parsed.
func (s *Scraper) description(ctx context.Context, productURL string) string {
	if productURL == "" {
		s.recordError(stageDescription, "", errors.New("product card has no link"))
		return ""
	}
	if s.descriptions != nil {
		if text, ok := s.descriptions.Get(productURL); ok {
			return text
		}
	}

	doc, err := s.loadDocument(ctx, productURL, false)
	if err != nil {
		s.recordError(stageDescription, productURL, err)
		return ""
	}
	text, err := s.extractor.Description(doc)
	if err != nil {
		s.recordError(stageDescription, productURL, err)
		return ""
	}

	if s.descriptions != nil {
		s.descriptions.Add(productURL, text)
	}
	return text
}

func (s *Scraper) downloadAsset(ctx context.Context, kind, rawURL, name string) {
	path, err := s.downloader.Download(ctx, rawURL, name)
	if err != nil {
		s.recordError(stageAsset, rawURL, err)
		return
	}
	if path == "" {
		return
	}
	s.imagesDownloaded++
	s.Metrics.IncImages(kind)
	slog.Debug("image downloaded", slog.String("kind", kind), slog.String("path", path))
}

// loadDocument fetches and parses rawURL. When cached is set the body is
// kept in the page cache so the traversal can reuse the counting fetch.
func (s *Scraper) loadDocument(ctx context.Context, rawURL string, cached bool) (*goquery.Document, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}

	var body []byte
	if cached && s.pages != nil {
		body, _ = s.pages.Get(rawURL)
	}
	if body == nil {
		fetched, err := s.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		body = fetched
		if cached && s.pages != nil {
			s.pages.Add(rawURL, body)
		}
	}

	return parser.LoadDocument(body)
}

func (s *Scraper) forgetPage(rawURL string) {
	if s.pages != nil {
		s.pages.Remove(rawURL)
	}
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	s.requestCount++
	return s.fetcher.Fetch(ctx, rawURL)
}

// recordError logs and counts a per-item failure. Counting-pass failures are
// not reported as failed URLs since the traversal fetches the page again.
func (s *Scraper) recordError(stage, rawURL string, err error) {
	category := errorTypeLabel(err)
	s.errorCount++
	s.errorsByType[category]++
	if rawURL != "" && stage != stageCount && stage != stagePrice {
		s.failedURLs = append(s.failedURLs, rawURL)
	}
	s.Metrics.IncError(stage, category)

	level := slog.LevelError
	if stage == stageCount || stage == stagePrice {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "scrape step failed",
		slog.String("stage", stage),
		slog.String("url", rawURL),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func (s *Scraper) snapshotErrors() map[string]int {
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}
