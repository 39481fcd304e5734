package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-storefront/models"
)

// ValidateProduct reports the first required field the scraper failed to capture.
func ValidateProduct(p *models.ProductRecord) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product missing id for %s", p.ProductURL)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("product missing title for %s", p.ProductURL)
	}
	if strings.TrimSpace(p.ProductURL) == "" {
		return fmt.Errorf("product missing url for %s", p.Title)
	}
	if p.RegularPriceCents < 0 || p.SalePriceCents < 0 {
		return fmt.Errorf("product has negative price for %s", p.Title)
	}
	return nil
}
