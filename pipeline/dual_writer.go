// Package pipeline collects scraped collections into a report and writes it out.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-storefront/models"
)

// DualWriter outputs to both JSON and CSV formats
type DualWriter struct {
	jsonWriter *JSONWriter
	csvWriter  *CSVWriter
}

// NewDualWriter creates a new dual writer for both JSON and CSV output
func NewDualWriter(jsonFilename, csvFilename string) *DualWriter {
	return &DualWriter{
		jsonWriter: NewJSONWriter(jsonFilename),
		csvWriter:  NewCSVWriter(csvFilename),
	}
}

// CSVPathFor derives the CSV file name that accompanies a JSON report.
func CSVPathFor(jsonFilename string) string {
	return strings.TrimSuffix(jsonFilename, ".json") + ".csv"
}

// Write writes the report to both formats
func (dw *DualWriter) Write(report models.CrawlReport) error {
	if err := dw.jsonWriter.Write(report); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	if err := dw.csvWriter.Write(report); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	return nil
}

// Validate validates both output files
func (dw *DualWriter) Validate() error {
	var errs []error

	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}
	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("CSV validation failed: %w", err))
	}

	return errors.Join(errs...)
}
