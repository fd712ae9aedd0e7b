package webpage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// Article is the readable body of a page.
type Article struct {
	Title   string
	Content string
	Raw     []byte
}

// Extractor produces sanitised reader-mode content.
type Extractor struct {
	fetcher   *Fetcher
	userAgent string
	policy    *bluemonday.Policy
}

// NewExtractor returns an extractor that fetches as userAgent.
func NewExtractor(fetcher *Fetcher, userAgent string) *Extractor {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Extractor{fetcher: fetcher, userAgent: userAgent, policy: policy}
}

// Extract fetches rawURL and runs the readability pass over it.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Article, error) {
	page, err := e.fetcher.Fetch(ctx, rawURL, e.userAgent)
	if err != nil {
		return nil, err
	}

	parsed, err := readability.FromReader(bytes.NewReader(page.Body), page.URL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	content := strings.TrimSpace(e.policy.Sanitize(parsed.Content))
	if content == "" {
		return nil, fmt.Errorf("readability: no readable content")
	}

	return &Article{
		Title:   strings.TrimSpace(parsed.Title),
		Content: content,
		Raw:     page.Body,
	}, nil
}
