package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-storefront/config"
)

func newTestFetcher(t *testing.T) (*CollyFetcher, *httpmock.MockTransport, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	fetcher := NewCollyFetcher(config.DefaultConfig(), metrics)
	transport := httpmock.NewMockTransport()
	fetcher.WithTransport(transport)
	return fetcher, transport, metrics
}

func TestCollyFetcherReturnsBody(t *testing.T) {
	fetcher, transport, _ := newTestFetcher(t)
	transport.RegisterResponder("GET", testBaseURL+"/collections", htmlResponder("<html>ok</html>"))

	body, err := fetcher.Fetch(context.Background(), testBaseURL+"/collections")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("Fetch() body = %q", body)
	}
}

func TestCollyFetcherReturnsLargeBodyUntruncated(t *testing.T) {
	fetcher, transport, _ := newTestFetcher(t)
	target := "http://cdn.example.test/poster.jpg"
	large := bytes.Repeat([]byte{0xAB}, 12<<20)
	transport.RegisterResponder("GET", target, httpmock.NewBytesResponder(http.StatusOK, large))

	body, err := fetcher.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(body) != len(large) {
		t.Fatalf("Fetch() body length = %d, want %d", len(body), len(large))
	}
}

func TestCollyFetcherRevisitsURL(t *testing.T) {
	fetcher, transport, _ := newTestFetcher(t)
	target := testBaseURL + "/collections/figures"
	transport.RegisterResponder("GET", target, htmlResponder("<html>figures</html>"))

	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(context.Background(), target); err != nil {
			t.Fatalf("Fetch() #%d error = %v", i+1, err)
		}
	}
	if got := transport.GetCallCountInfo()["GET "+target]; got != 2 {
		t.Fatalf("call count = %d, want 2", got)
	}
}

func TestCollyFetcherClassifiesStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected string
	}{
		{name: "forbidden", status: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", status: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", status: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", status: http.StatusInternalServerError, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, transport, _ := newTestFetcher(t)
			target := testBaseURL + "/status"
			transport.RegisterResponder("GET", target, httpmock.NewStringResponder(tt.status, "nope"))

			_, err := fetcher.Fetch(context.Background(), target)
			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("Fetch() error = %v, want *TransportError", err)
			}
			if transportErr.URL != target {
				t.Fatalf("TransportError.URL = %q, want %q", transportErr.URL, target)
			}
			if got := errorTypeLabel(err); got != tt.expected {
				t.Fatalf("errorTypeLabel() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCollyFetcherUnregisteredURL(t *testing.T) {
	fetcher, _, _ := newTestFetcher(t)

	_, err := fetcher.Fetch(context.Background(), testBaseURL+"/missing")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Fetch() error = %v, want *TransportError", err)
	}
}

func TestCollyFetcherHonoursCancelledContext(t *testing.T) {
	fetcher, transport, _ := newTestFetcher(t)
	transport.RegisterResponder("GET", testBaseURL+"/collections", htmlResponder("<html></html>"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, testBaseURL+"/collections")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("transport calls = %d, want 0", got)
	}
}
