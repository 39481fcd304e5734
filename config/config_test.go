package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "unsupported scheme",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "ftp://example.test"
			},
			wantErr: "scheme",
		},
		{
			name: "empty collections path",
			mutate: func(cfg *Config) {
				cfg.CollectionsPath = " "
			},
			wantErr: "collections path",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "downloads without image dir",
			mutate: func(cfg *Config) {
				cfg.DownloadImages = true
				cfg.ImageDir = ""
			},
			wantErr: "image dir",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative page cache",
			mutate: func(cfg *Config) {
				cfg.PageCacheSize = -1
			},
			wantErr: "page cache",
		},
		{
			name: "missing product card selector",
			mutate: func(cfg *Config) {
				cfg.Selectors.ProductCard = ""
			},
			wantErr: "selectors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.DownloadImages {
		t.Fatalf("image downloads should be disabled by default")
	}
	if cfg.OutputFile != "collections.json" {
		t.Fatalf("output file = %q, want collections.json", cfg.OutputFile)
	}
}

func TestCollectionsURL(t *testing.T) {
	tests := []struct {
		base     string
		path     string
		expected string
	}{
		{base: "https://shop.example", path: "/collections", expected: "https://shop.example/collections"},
		{base: "https://shop.example/", path: "collections", expected: "https://shop.example/collections"},
		{base: "http://example.test/store/", path: "/collections/all", expected: "http://example.test/collections/all"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BaseURL = tt.base
			cfg.CollectionsPath = tt.path
			got, err := cfg.CollectionsURL()
			if err != nil {
				t.Fatalf("collections url: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("CollectionsURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "42")
	t.Setenv("SCRAPER_TEST_BOOL", "true")
	t.Setenv("SCRAPER_TEST_DURATION", "45s")
	t.Setenv("SCRAPER_TEST_BLANK", "   ")
	t.Setenv("SCRAPER_TEST_BAD_INT", "forty")

	if v, ok, err := EnvInt("SCRAPER_TEST_INT"); err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = %d/%v/%v, want 42/true/nil", v, ok, err)
	}
	if v, ok, err := EnvBool("SCRAPER_TEST_BOOL"); err != nil || !ok || !v {
		t.Fatalf("EnvBool = %v/%v/%v, want true/true/nil", v, ok, err)
	}
	if v, ok, err := EnvDuration("SCRAPER_TEST_DURATION"); err != nil || !ok || v != 45*time.Second {
		t.Fatalf("EnvDuration = %v/%v/%v, want 45s/true/nil", v, ok, err)
	}
	if _, ok := EnvString("SCRAPER_TEST_BLANK"); ok {
		t.Fatalf("blank value should be reported as unset")
	}
	if _, _, err := EnvInt("SCRAPER_TEST_BAD_INT"); err == nil {
		t.Fatalf("expected parse error for non-numeric int")
	}
	if _, ok, err := EnvInt("SCRAPER_TEST_MISSING"); ok || err != nil {
		t.Fatalf("missing key should be unset without error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SCRAPER_DOTENV_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SCRAPER_DOTENV_VALUE", "")
	os.Unsetenv("SCRAPER_DOTENV_VALUE")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got, _ := EnvString("SCRAPER_DOTENV_VALUE"); got != "from-file" {
		t.Fatalf("SCRAPER_DOTENV_VALUE = %q, want from-file", got)
	}
}
