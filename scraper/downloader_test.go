package scraper

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDownloaderWritesSanitizedName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "images")
	base, err := url.Parse(testBaseURL)
	require.NoError(t, err)

	var requested []string
	fetcher := FetcherFunc(func(_ context.Context, rawURL string) ([]byte, error) {
		requested = append(requested, rawURL)
		return []byte("webp-bytes"), nil
	})

	d := NewFileDownloader(fetcher, dir, base)
	require.NoError(t, d.Prepare())

	path, err := d.Download(context.Background(), "//cdn.example.test/a.jpg?v=2", "Naruto: Sage Mode!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Naruto-Sage-Mode-.webp"), path)
	assert.Equal(t, []string{"http://cdn.example.test/a.jpg?v=2"}, requested)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "webp-bytes", string(data))

	_, err = d.Download(context.Background(), "/files/b.jpg", "Naruto: Sage Mode!")
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/files/b.jpg", requested[1])
}

func TestFileDownloaderPropagatesFetchError(t *testing.T) {
	dir := t.TempDir()
	fetchErr := &TransportError{URL: "http://cdn.example.test/x.jpg", Err: ErrForbidden{Err: errors.New("http status 403")}}
	d := NewFileDownloader(FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, fetchErr
	}), dir, nil)

	path, err := d.Download(context.Background(), "http://cdn.example.test/x.jpg", "X")
	assert.Empty(t, path)
	assert.Equal(t, "forbidden", errorTypeLabel(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileDownloaderRejectsEmptyURL(t *testing.T) {
	d := NewFileDownloader(FetcherFunc(func(context.Context, string) ([]byte, error) {
		t.Fatal("fetcher must not be called")
		return nil, nil
	}), t.TempDir(), nil)

	_, err := d.Download(context.Background(), "  ", "X")
	assert.Error(t, err)
}

func TestNoopDownloader(t *testing.T) {
	var d Downloader = NoopDownloader{}
	require.NoError(t, d.Prepare())
	path, err := d.Download(context.Background(), "http://cdn.example.test/x.jpg", "X")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestUUIDGenerator(t *testing.T) {
	a, err := UUIDGenerator{}.NewID()
	require.NoError(t, err)
	b, err := UUIDGenerator{}.NewID()
	require.NoError(t, err)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
