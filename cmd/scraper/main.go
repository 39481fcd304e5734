package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-storefront/config"
	"github.com/aluiziolira/go-scrape-storefront/models"
	"github.com/aluiziolira/go-scrape-storefront/pipeline"
	"github.com/aluiziolira/go-scrape-storefront/scraper"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := parseFlags(cfg, flag.CommandLine, os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("collections_path", cfg.CollectionsPath),
		slog.Bool("download_images", cfg.DownloadImages),
		slog.String("format", cfg.OutputFormat),
	)

	var reporter scraper.ProgressReporter = scraper.NewLogReporter(10)
	if isTerminal(os.Stderr) {
		reporter = scraper.NewBarReporter(os.Stderr)
	}

	s, err := scraper.NewScraper(cfg, scraper.WithProgressReporter(reporter))
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, abandoning scrape")
	}()

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)

	p := pipeline.NewPipeline(writer)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	startTime := time.Now()
	result, err := s.Run(ctx, p)
	stopMetricsServer(metricsServer)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err), slog.String("state", s.State().String()))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("Scraping completed and data saved to %s\n", cfg.OutputFile)
	printSummary(os.Stdout, result, time.Since(startTime), cfg.OutputFile, p.GetMetrics())
}

// applyEnv overlays SCRAPER_* variables on cfg. Flags parsed afterwards win.
func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := config.EnvString("SCRAPER_COLLECTIONS_PATH"); ok {
		cfg.CollectionsPath = value
	}
	if value, ok := config.EnvString("SCRAPER_IMAGE_DIR"); ok {
		cfg.ImageDir = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := config.EnvString("SCRAPER_USER_AGENT"); ok {
		cfg.UserAgent = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	if value, ok, err := config.EnvBool("SCRAPER_DOWNLOAD_IMAGES"); err != nil {
		return fmt.Errorf("invalid SCRAPER_DOWNLOAD_IMAGES: %w", err)
	} else if ok {
		cfg.DownloadImages = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_RESPECT_ROBOTS"); err != nil {
		return fmt.Errorf("invalid SCRAPER_RESPECT_ROBOTS: %w", err)
	} else if ok {
		cfg.RespectRobotsTxt = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return fmt.Errorf("invalid SCRAPER_TIMEOUT: %w", err)
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_PAGE_CACHE"); err != nil {
		return fmt.Errorf("invalid SCRAPER_PAGE_CACHE: %w", err)
	} else if ok {
		cfg.PageCacheSize = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_DESCRIPTION_CACHE"); err != nil {
		return fmt.Errorf("invalid SCRAPER_DESCRIPTION_CACHE: %w", err)
	} else if ok {
		cfg.DescriptionCacheSize = value
	}
	return nil
}

func parseFlags(cfg *config.Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Storefront base URL")
	fs.StringVar(&cfg.CollectionsPath, "collections-path", cfg.CollectionsPath, "Path of the collections index")
	fs.BoolVar(&cfg.DownloadImages, "download-images", cfg.DownloadImages, "Download collection and product images")
	fs.StringVar(&cfg.ImageDir, "image-dir", cfg.ImageDir, "Directory for downloaded images")
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path")
	format := fs.String("format", cfg.OutputFormat, "Output format: json, csv, or dual")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	fs.BoolVar(&cfg.RespectRobotsTxt, "respect-robots", cfg.RespectRobotsTxt, "Respect robots.txt directives")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.OutputFormat = strings.ToLower(*format)
	return nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename), nil
	case "csv":
		return pipeline.NewCSVWriter(filename), nil
	case "dual":
		return pipeline.NewDualWriter(filename, pipeline.CSVPathFor(filename)), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func stopMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(w io.Writer, result *models.ScraperResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Scrape complete")

	fmt.Fprintf(w, "  Collections:   %d\n", result.CollectionCount)
	fmt.Fprintf(w, "  Products:      %d\n", result.ProductCount)
	if result.ImagesDownloaded > 0 {
		fmt.Fprintf(w, "  Images:        %d\n", result.ImagesDownloaded)
	}
	fmt.Fprintf(w, "  Progress:      %d/%d\n", result.ProgressCurrent, result.ProgressTotal)
	fmt.Fprintf(w, "  Requests:      %d\n", result.RequestCount)
	fmt.Fprintf(w, "  Errors:        %d\n", result.ErrorCount)
	fmt.Fprintf(w, "  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.ErrorsByType)
	}
	if warnings, ok := metrics["validation_warnings"].(map[string]int); ok && len(warnings) > 0 {
		fmt.Fprintf(w, "  Validation:    %v\n", warnings)
	}
	productsPerSec := 0.0
	if duration.Seconds() > 0 {
		productsPerSec = float64(result.ProductCount) / duration.Seconds()
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Products/sec:  %.2f\n", productsPerSec)
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
