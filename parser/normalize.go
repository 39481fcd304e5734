// Package parser turns storefront markup into typed catalog fields.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AssetExtension is appended to every downloaded image name.
const AssetExtension = ".webp"

var (
	// ErrEmptyPrice is returned for blank price text, e.g. a product without a sale price.
	ErrEmptyPrice = errors.New("parser: empty price")
	// ErrMalformedPrice is returned when price text holds no usable amount.
	ErrMalformedPrice = errors.New("parser: malformed price")
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	hyphenRun       = regexp.MustCompile(`-+`)
	nonSlugRun      = regexp.MustCompile(`[^a-z0-9]+`)
	nonPriceChars   = regexp.MustCompile(`[^0-9.\-]`)
)

// SanitizeAssetName maps a display name to a safe image file name.
func SanitizeAssetName(name string) string {
	sanitized := nonAlphanumeric.ReplaceAllString(name, "-")
	sanitized = hyphenRun.ReplaceAllString(sanitized, "-")
	if sanitized == "" {
		sanitized = "-"
	}
	return sanitized + AssetExtension
}

// Slugify lowercases name and joins its alphanumeric runs with single hyphens.
func Slugify(name string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// PriceToCents converts storefront price text to integer cents.
//
// Everything but digits, '.' and '-' is dropped. When a '.' is present it is
// removed and the digits are read as cents, so callers must supply two fraction
// digits ("19.99" is 1999). Without a '.' the amount is whole units ("20" is 2000).
// Text without any digit, negative amounts and overflows degrade to 0 with
// ErrMalformedPrice; blank text returns 0 with ErrEmptyPrice.
func PriceToCents(text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyPrice
	}

	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPrice, text)
	}

	if strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ".", "", 1)
	} else {
		cleaned += "00"
	}

	cents, err := leadingInt(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedPrice, text, err)
	}
	if cents < 0 {
		return 0, fmt.Errorf("%w: negative amount %q", ErrMalformedPrice, text)
	}
	return cents, nil
}

// leadingInt parses an optional sign followed by the longest run of digits,
// ignoring anything after it ("500-10.00" is 500).
func leadingInt(s string) (int64, error) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, fmt.Errorf("no leading digits in %q", s)
	}
	return strconv.ParseInt(s[:end], 10, 64)
}
