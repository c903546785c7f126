package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageReader exposes the rendered page of the shared browsing session.
type PageReader interface {
	Open(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
}

// statSelectors lists, per count field, the CSS selectors tried against
// the rendered page in order. The platform tags its counters with
// data-e2e attributes; naming drifts, so every known variant is listed.
var statSelectors = []struct {
	key       string
	selectors []string
}{
	{"diggCount", []string{`[data-e2e="like-count"]`, `[data-e2e="like-icon"] + span`}},
	{"commentCount", []string{`[data-e2e="comment-count"]`}},
	{"shareCount", []string{`[data-e2e="share-count"]`}},
	{"collectCount", []string{`[data-e2e="favorite-count"]`, `[data-e2e="collect-count"]`}},
}

// DOMStatsFetcher reads engagement counters straight off the rendered
// detail page instead of out of an embedded payload. The node it
// produces carries the rendered count texts under the canonical
// camel-case keys, so it satisfies the bare-statistics locator and the
// texts decode through the count-text parser.
type DOMStatsFetcher struct {
	page   PageReader
	style  DetailURLStyle
	settle time.Duration
	sleep  func(time.Duration)
}

// NewDOMStats creates a rendered-counter fetcher. settle is how long to
// wait after navigation for the counters to hydrate.
func NewDOMStats(page PageReader, style DetailURLStyle, settle time.Duration) *DOMStatsFetcher {
	return &DOMStatsFetcher{page: page, style: style, settle: settle, sleep: time.Sleep}
}

func (f *DOMStatsFetcher) Reset(ctx context.Context) error { return nil }

func (f *DOMStatsFetcher) Fetch(ctx context.Context, id string) (any, error) {
	if err := f.page.Open(ctx, DetailURL(f.style, id)); err != nil {
		return nil, fmt.Errorf("open detail page %s: %w", id, err)
	}
	f.sleep(f.settle)

	html, err := f.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read detail page %s: %w", id, err)
	}

	node, err := ScrapeStats(html)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// ScrapeStats extracts the four counter texts from rendered page HTML.
// All four must be present; a page that has not rendered its counters
// yields ErrNoPayload so the caller can fall back to a payload source.
func ScrapeStats(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	node := make(map[string]any, len(statSelectors))
	for _, field := range statSelectors {
		text := ""
		for _, sel := range field.selectors {
			if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
				text = t
				break
			}
		}
		if text == "" {
			return nil, ErrNoPayload
		}
		node[field.key] = text
	}
	return node, nil
}
