package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-storefront/config"
	"github.com/aluiziolira/go-scrape-storefront/models"
)

// ProductListing holds the raw fields of a product card on a collection page.
type ProductListing struct {
	Title        string
	RegularPrice string
	SalePrice    string
	ImageURL     string
	Link         string
}

// Extractor maps loaded storefront pages to catalog fields using a selector set.
type Extractor struct {
	sel config.Selectors
}

// NewExtractor builds an extractor for the given selectors.
func NewExtractor(sel config.Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// LoadDocument parses raw markup into a queryable document.
func LoadDocument(markup []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Collections returns one summary per collection card, in document order.
// Missing fields degrade to empty strings; cards are never dropped.
func (x *Extractor) Collections(doc *goquery.Document, base *url.URL) []models.CollectionSummary {
	cards := doc.Find(x.sel.CollectionCard)
	out := make([]models.CollectionSummary, 0, cards.Length())

	cards.Each(func(_ int, card *goquery.Selection) {
		link := card.Find(x.sel.CollectionLink).First().AttrOr("href", "")
		name := strings.TrimSpace(card.Find(x.sel.CollectionName).First().Text())
		image := card.Find(x.sel.CollectionImage).First().AttrOr("src", "")

		out = append(out, models.CollectionSummary{
			URL:      ResolveURL(base, link),
			Name:     name,
			ImageURL: strings.TrimSpace(image),
			Slug:     Slugify(name),
		})
	})
	return out
}

// CountProducts returns the number of product cards on a collection page.
func (x *Extractor) CountProducts(doc *goquery.Document) int {
	return doc.Find(x.sel.ProductCard).Length()
}

// Products returns the product cards of a collection page, in listing order.
func (x *Extractor) Products(doc *goquery.Document) []ProductListing {
	cards := doc.Find(x.sel.ProductCard)
	out := make([]ProductListing, 0, cards.Length())

	cards.Each(func(_ int, card *goquery.Selection) {
		heading := card.Find(x.sel.ProductTitle)
		out = append(out, ProductListing{
			Title: strings.TrimSpace(heading.Text()),
			// Some themes render a hidden duplicate regular price first.
			RegularPrice: strings.TrimSpace(card.Find(x.sel.ProductRegularPrice).Last().Text()),
			SalePrice:    strings.TrimSpace(card.Find(x.sel.ProductSalePrice).Text()),
			ImageURL:     strings.TrimSpace(card.Find(x.sel.ProductImage).First().AttrOr("src", "")),
			Link:         strings.TrimSpace(heading.First().AttrOr("href", "")),
		})
	})
	return out
}

// DescriptionHTML returns the inner HTML of the first description block with
// images, scripts, styles and noscript blocks removed. A page without a
// description block yields "".
func (x *Extractor) DescriptionHTML(doc *goquery.Document) (string, error) {
	block := doc.Find(x.sel.Description).First()
	if block.Length() == 0 {
		return "", nil
	}
	block.Find(strippedElements).Remove()

	fragment, err := block.Html()
	if err != nil {
		return "", fmt.Errorf("render description html: %w", err)
	}
	return fragment, nil
}

// Description extracts the product description of a detail page as plain text.
func (x *Extractor) Description(doc *goquery.Document) (string, error) {
	fragment, err := x.DescriptionHTML(doc)
	if err != nil {
		return "", err
	}
	return CleanDescription(fragment)
}

// ResolveURL resolves href against base. Empty or unparsable links yield "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
