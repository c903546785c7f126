package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractRenderData pulls the inline RENDER_DATA JSON out of a rendered
// page. The blob lives either in a meta tag's content attribute or in a
// script element, and is usually percent-encoded.
func ExtractRenderData(html string) (any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	raw, _ := doc.Find(`meta[name="RENDER_DATA"]`).Attr("content")
	if raw == "" {
		raw = doc.Find("script#RENDER_DATA").Text()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoPayload
	}

	return decodeRenderData(raw)
}

func decodeRenderData(raw string) (any, error) {
	if strings.HasPrefix(raw, "%7B") {
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
	}

	return decodeJSON([]byte(raw))
}
