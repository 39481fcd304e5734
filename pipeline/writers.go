package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aluiziolira/go-scrape-storefront/models"
)

// JSONWriter writes the report as an indented JSON document.
type JSONWriter struct {
	filename string
}

// NewJSONWriter returns a writer for filename. Nothing touches the file
// system until Write.
func NewJSONWriter(filename string) *JSONWriter {
	return &JSONWriter{filename: filename}
}

// Write replaces filename with the report, indented by two spaces.
func (jw *JSONWriter) Write(report models.CrawlReport) error {
	if report == nil {
		report = models.CrawlReport{}
	}
	return writeAtomic(jw.filename, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	})
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.filename, "json")
}

// CSVWriter writes one row per product, with its collection's columns.
type CSVWriter struct {
	filename string
}

// NewCSVWriter returns a writer for filename.
func NewCSVWriter(filename string) *CSVWriter {
	return &CSVWriter{filename: filename}
}

var csvHeader = []string{
	"collection_name", "collection_slug", "collection_url",
	"id", "title", "regular_price_cents", "sale_price_cents",
	"image_url", "description", "product_url",
}

// Write replaces filename with the flattened report.
func (cw *CSVWriter) Write(report models.CrawlReport) error {
	return writeAtomic(cw.filename, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}

		for _, collection := range report {
			for _, product := range collection.Products {
				record := []string{
					collection.Name,
					collection.Slug,
					collection.URL,
					product.ID,
					product.Title,
					strconv.FormatInt(product.RegularPriceCents, 10),
					strconv.FormatInt(product.SalePriceCents, 10),
					product.ImageURL,
					product.Description,
					product.ProductURL,
				}
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("write csv record: %w", err)
				}
			}
		}

		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush csv records: %w", err)
		}
		return nil
	})
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	return validateNonEmpty(cw.filename, "csv")
}

// writeAtomic writes through a temp file in the target directory and renames
// it over filename, so a failed write never leaves a truncated file behind.
func writeAtomic(filename string, write func(io.Writer) error) error {
	if err := ensureDir(filename); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	buffer := bufio.NewWriter(tmp)
	if err := write(buffer); err != nil {
		tmp.Close()
		return err
	}
	if err := buffer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("replace %s: %w", filename, err)
	}
	return nil
}

func validateNonEmpty(filename, kind string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
