package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Selectors holds the CSS selectors matching the storefront theme markup.
type Selectors struct {
	CollectionCard  string
	CollectionLink  string
	CollectionName  string
	CollectionImage string

	ProductCard         string
	ProductTitle        string
	ProductRegularPrice string
	ProductSalePrice    string
	ProductImage        string

	Description string
}

// DefaultSelectors returns the selectors for the default storefront theme.
func DefaultSelectors() Selectors {
	return Selectors{
		CollectionCard:  ".collection-list__item.grid__item.scroll-trigger.animate--slide-in",
		CollectionLink:  ".full-unstyled-link",
		CollectionName:  ".card__heading .full-unstyled-link",
		CollectionImage: ".media.media--transparent.media--hover-effect img",

		ProductCard:         ".grid__item.scroll-trigger.animate--slide-in",
		ProductTitle:        ".card__heading.h5 .full-unstyled-link",
		ProductRegularPrice: ".price-item.price-item--regular",
		ProductSalePrice:    ".price-item.price-item--sale.price-item--last",
		ProductImage:        ".media.media--transparent.media--hover-effect img",

		Description: ".product__description.rte.quick-add-hidden",
	}
}

// Config holds scraper configuration.
type Config struct {
	BaseURL              string
	CollectionsPath      string
	DownloadImages       bool
	ImageDir             string
	Timeout              time.Duration
	OutputFile           string
	OutputFormat         string // json, csv, or dual
	UserAgent            string
	Verbose              bool
	RespectRobotsTxt     bool
	MetricsAddr          string
	PageCacheSize        int
	DescriptionCacheSize int
	Selectors            Selectors
}

// DefaultConfig returns defaults for the demo storefront.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "https://animepavilion.com",
		CollectionsPath:      "/collections",
		DownloadImages:       false,
		ImageDir:             "images",
		Timeout:              30 * time.Second,
		OutputFile:           "collections.json",
		OutputFormat:         "json",
		UserAgent:            "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:              false,
		RespectRobotsTxt:     false,
		MetricsAddr:          "",
		PageCacheSize:        256,
		DescriptionCacheSize: 1024,
		Selectors:            DefaultSelectors(),
	}
}

// CollectionsURL is the absolute URL of the collections index page.
func (c *Config) CollectionsURL() (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(c.CollectionsPath)
	if err != nil {
		return "", fmt.Errorf("invalid collections path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https")
	}

	if strings.TrimSpace(c.CollectionsPath) == "" {
		return fmt.Errorf("collections path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DownloadImages && c.ImageDir == "" {
		return fmt.Errorf("image dir cannot be empty when image downloads are enabled")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.PageCacheSize < 0 {
		return fmt.Errorf("page cache size cannot be negative")
	}
	if c.DescriptionCacheSize < 0 {
		return fmt.Errorf("description cache size cannot be negative")
	}
	if c.Selectors.CollectionCard == "" || c.Selectors.ProductCard == "" {
		return fmt.Errorf("card selectors cannot be empty")
	}

	return nil
}
