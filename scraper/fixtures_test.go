package scraper

import (
	"fmt"
	"strings"

	"github.com/jarcoal/httpmock"
)

const testBaseURL = "http://shop.example.test"

type testProduct struct {
	Title   string
	Slug    string
	Regular string
	Sale    string
	Image   bool
}

type testCollection struct {
	Name     string
	Slug     string
	Image    bool
	Products []testProduct
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func collectionURL(slug string) string {
	return testBaseURL + "/collections/" + slug
}

func productURL(slug string) string {
	return testBaseURL + "/products/" + slug
}

func buildCollectionsIndex(collections ...testCollection) string {
	var builder strings.Builder
	builder.WriteString("<html><body><ul class=\"collection-list\">")
	for _, c := range collections {
		builder.WriteString("<li class=\"collection-list__item grid__item scroll-trigger animate--slide-in\"><div class=\"card\">")
		if c.Image {
			fmt.Fprintf(&builder, "<div class=\"media media--transparent media--hover-effect\"><img src=\"//cdn.example.test/%s.jpg\"></div>", c.Slug)
		}
		fmt.Fprintf(&builder, "<h3 class=\"card__heading\"><a class=\"full-unstyled-link\" href=\"/collections/%s\">%s</a></h3>", c.Slug, c.Name)
		builder.WriteString("</div></li>")
	}
	builder.WriteString("</ul></body></html>")
	return builder.String()
}

func buildCollectionPage(products ...testProduct) string {
	var builder strings.Builder
	builder.WriteString("<html><body><ul id=\"product-grid\">")
	for _, p := range products {
		builder.WriteString("<li class=\"grid__item scroll-trigger animate--slide-in\"><div class=\"card-wrapper\">")
		if p.Image {
			fmt.Fprintf(&builder, "<div class=\"media media--transparent media--hover-effect\"><img src=\"//cdn.example.test/%s.jpg\"></div>", p.Slug)
		}
		fmt.Fprintf(&builder, "<h3 class=\"card__heading h5\"><a class=\"full-unstyled-link\" href=\"/products/%s\">\n  %s\n</a></h3>", p.Slug, p.Title)
		fmt.Fprintf(&builder, "<span class=\"price-item price-item--regular\">%s</span>", p.Regular)
		if p.Sale != "" {
			fmt.Fprintf(&builder, "<span class=\"price-item price-item--sale price-item--last\">%s</span>", p.Sale)
		}
		builder.WriteString("</div></li>")
	}
	builder.WriteString("</ul></body></html>")
	return builder.String()
}

func buildProductPage(description string) string {
	return "<html><body><div class=\"product__description rte quick-add-hidden\">" + description + "</div></body></html>"
}

// registerStore wires every collection, product and image of the fixture store.
func registerStore(transport *httpmock.MockTransport, collections ...testCollection) {
	transport.RegisterResponder("GET", testBaseURL+"/collections", htmlResponder(buildCollectionsIndex(collections...)))
	for _, c := range collections {
		transport.RegisterResponder("GET", collectionURL(c.Slug), htmlResponder(buildCollectionPage(c.Products...)))
		if c.Image {
			transport.RegisterResponder("GET", "http://cdn.example.test/"+c.Slug+".jpg", httpmock.NewBytesResponder(200, []byte("collection-image-"+c.Slug)))
		}
		for _, p := range c.Products {
			transport.RegisterResponder("GET", productURL(p.Slug), htmlResponder(buildProductPage("<p>About "+p.Title+"</p><script>track()</script><p>Ships fast</p>")))
			if p.Image {
				transport.RegisterResponder("GET", "http://cdn.example.test/"+p.Slug+".jpg", httpmock.NewBytesResponder(200, []byte("product-image-"+p.Slug)))
			}
		}
	}
}

type sequenceIDs struct {
	next int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("product-%03d", g.next), nil
}

type recordingReporter struct {
	started  int64
	updates  [][2]int64
	finished bool
}

func (r *recordingReporter) Start(total int64) { r.started = total }

func (r *recordingReporter) Update(current, total int64) {
	r.updates = append(r.updates, [2]int64{current, total})
}

func (r *recordingReporter) Finish() { r.finished = true }
