package scraper

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-storefront/parser"
)

// Downloader stores images referenced by the catalog.
type Downloader interface {
	// Prepare creates whatever the downloader needs before the first Download.
	Prepare() error
	// Download fetches rawURL and stores it under a file name derived from name.
	// It returns the written path, or "" when nothing was written.
	Download(ctx context.Context, rawURL, name string) (string, error)
}

// NoopDownloader is used when image downloads are disabled.
type NoopDownloader struct{}

// Prepare does nothing.
func (NoopDownloader) Prepare() error { return nil }

// Download does nothing.
func (NoopDownloader) Download(context.Context, string, string) (string, error) { return "", nil }

// FileDownloader writes images into a local directory.
type FileDownloader struct {
	fetcher Fetcher
	dir     string
	base    *url.URL
}

// NewFileDownloader builds a downloader writing into dir. Relative and
// protocol-relative image URLs are resolved against base.
func NewFileDownloader(fetcher Fetcher, dir string, base *url.URL) *FileDownloader {
	return &FileDownloader{
		fetcher: fetcher,
		dir:     dir,
		base:    base,
	}
}

// Prepare creates the image directory.
func (d *FileDownloader) Prepare() error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create image directory %q: %w", d.dir, err)
	}
	return nil
}

// Download fetches rawURL and writes it to dir/SanitizeAssetName(name),
// overwriting any previous file.
func (d *FileDownloader) Download(ctx context.Context, rawURL, name string) (string, error) {
	target := parser.ResolveURL(d.base, rawURL)
	if target == "" {
		return "", fmt.Errorf("invalid image url %q", rawURL)
	}

	body, err := d.fetcher.Fetch(ctx, target)
	if err != nil {
		return "", err
	}

	path := filepath.Join(d.dir, parser.SanitizeAssetName(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write image %q: %w", path, err)
	}
	return path, nil
}
