package webpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultFavicon = "/favicon.ico"

// Metadata is what the add-link form is prefilled with.
type Metadata struct {
	Title       string
	Description string
	Favicon     string
	Image       *string
}

// Scraper extracts Open Graph metadata from a page.
type Scraper struct {
	fetcher   *Fetcher
	userAgent string
}

// NewScraper returns a scraper that identifies itself as userAgent.
func NewScraper(fetcher *Fetcher, userAgent string) *Scraper {
	return &Scraper{fetcher: fetcher, userAgent: userAgent}
}

// Scrape fetches rawURL and extracts its metadata.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Metadata, error) {
	page, err := s.fetcher.Fetch(ctx, rawURL, s.userAgent)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(page.URL, bytes.NewReader(page.Body))
}

// ParseMetadata reads an HTML document and resolves favicon and image against
// base.
func ParseMetadata(base *url.URL, r io.Reader) (*Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := firstNonEmpty(
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find("title").First().Text(),
	)
	description := firstNonEmpty(
		doc.Find(`meta[name="description"]`).AttrOr("content", ""),
		doc.Find(`meta[property="og:description"]`).AttrOr("content", ""),
	)
	favicon := firstNonEmpty(
		doc.Find(`link[rel="icon"]`).AttrOr("href", ""),
		doc.Find(`link[rel="shortcut icon"]`).AttrOr("href", ""),
		defaultFavicon,
	)

	meta := &Metadata{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Favicon:     resolve(base, favicon),
	}
	if image := strings.TrimSpace(doc.Find(`meta[property="og:image"]`).AttrOr("content", "")); image != "" {
		resolved := resolve(base, image)
		meta.Image = &resolved
	}
	return meta, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// resolve returns ref made absolute against base, or ref untouched when it
// cannot be parsed.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	parsed, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
