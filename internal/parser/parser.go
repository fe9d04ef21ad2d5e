// Package parser turns a product card's HTML fragment into a ProductRecord.
// Parsing runs offline on a fragment fetched in a single driver call, so a
// stale card costs exactly one contained fault.
package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
	"github.com/cenozavr/okey-delivery-scraper/internal/models"
)

// currencySuffix is the fixed 2-character tail on every price string.
const currencySuffix = " ₴"

var categoryPattern = regexp.MustCompile(`category: "([^"]+)"`)

// CardParser extracts the fixed 6-field set from product card fragments.
type CardParser struct {
	baseURL string
	logger  *slog.Logger
}

// New returns a parser that absolutizes URLs against the given site root.
func New(baseURL string, logger *slog.Logger) *CardParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardParser{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("component", "parser"),
	}
}

// ParseCard extracts one record from a card fragment. Structural gaps in the
// required fields are bad-attribute faults; a missing category is expected
// page shape and yields the sentinel with one warning.
func (p *CardParser) ParseCard(fragment string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, driver.NewFault(driver.KindBadAttribute, "parse card",
			fmt.Errorf("parse fragment: %w", err))
	}

	anchor := doc.Find("a").First()
	if anchor.Length() == 0 {
		return nil, driver.NewFault(driver.KindBadAttribute, "parse card",
			fmt.Errorf("card has no anchor"))
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return nil, driver.NewFault(driver.KindBadAttribute, "parse card",
			fmt.Errorf("card anchor has no href"))
	}

	imageSrc, ok := doc.Find("img").First().Attr("data-src")
	if !ok {
		return nil, driver.NewFault(driver.KindBadAttribute, "parse card",
			fmt.Errorf("card image has no data-src"))
	}

	category, found := ExtractCategory(doc.Find("script").First().Text())
	if !found {
		p.logger.Warn("category not found")
	}

	spans := doc.Find(".product-price span")
	if spans.Length() < 2 {
		return nil, driver.NewFault(driver.KindBadAttribute, "parse card",
			fmt.Errorf("price container has %d spans, want 2", spans.Length()))
	}

	return &models.ProductRecord{
		Name:          strings.TrimSpace(anchor.Text()),
		URL:           driver.AbsoluteURL(p.baseURL, href),
		ImageURL:      driver.AbsoluteURL(p.baseURL, imageSrc),
		Category:      category,
		FullPrice:     NormalizePrice(spans.Eq(0).Text()),
		DiscountPrice: NormalizePrice(spans.Eq(1).Text()),
	}, nil
}

// ExtractCategory pulls the category label out of the card's embedded script
// block. The second result is false when the pattern does not match; callers
// get the sentinel value.
func ExtractCategory(script string) (string, bool) {
	match := categoryPattern.FindStringSubmatch(script)
	if match == nil {
		return models.NoCategory, false
	}
	return match[1], true
}

// NormalizePrice trims the raw price text and strips the fixed currency
// suffix. Already-clean input passes through unchanged, so normalization is
// idempotent.
func NormalizePrice(raw string) string {
	price := strings.TrimSpace(raw)
	price = strings.TrimSuffix(price, currencySuffix)
	price = strings.TrimSuffix(price, "₴")
	return strings.TrimSpace(price)
}
