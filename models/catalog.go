// Package models defines data structures for the storefront scraper.
package models

import "time"

// CollectionSummary is a collection card found on the collections index.
type CollectionSummary struct {
	URL      string
	Name     string
	ImageURL string
	Slug     string
}

// ProductRecord represents a product scraped from a collection page.
type ProductRecord struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	RegularPriceCents int64  `json:"regularPriceCents"`
	SalePriceCents    int64  `json:"salePriceCents"`
	ImageURL          string `json:"imageUrl,omitempty"`
	Description       string `json:"description"`
	ProductURL        string `json:"productUrl"`
	CollectionName    string `json:"collectionName"`
}

// CollectionResult owns the products scraped for one collection, in listing order.
type CollectionResult struct {
	URL      string           `json:"url"`
	Name     string           `json:"name"`
	ImageURL string           `json:"imageUrl,omitempty"`
	Slug     string           `json:"slug"`
	Products []*ProductRecord `json:"products"`
}

// NewCollectionResult starts an empty result for a discovered collection.
func NewCollectionResult(summary CollectionSummary) *CollectionResult {
	return &CollectionResult{
		URL:      summary.URL,
		Name:     summary.Name,
		ImageURL: summary.ImageURL,
		Slug:     summary.Slug,
		Products: make([]*ProductRecord, 0),
	}
}

// CrawlReport is the document written at the end of a run, in discovery order.
type CrawlReport []*CollectionResult

// ProductCount returns the number of products across all collections.
func (r CrawlReport) ProductCount() int {
	total := 0
	for _, c := range r {
		total += len(c.Products)
	}
	return total
}

// ScraperResult holds the overall result of a scraping operation
type ScraperResult struct {
	StartTime        time.Time
	EndTime          time.Time
	CollectionCount  int
	ProductCount     int
	ImagesDownloaded int
	ErrorCount       int
	FailedURLs       []string
	ErrorsByType     map[string]int
	RequestCount     int
	ProgressTotal    int64
	ProgressCurrent  int64
}
