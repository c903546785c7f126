package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const detailUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// DetailFetcher fetches an item's detail page over plain HTTP and
// extracts the inline RENDER_DATA payload. It needs session cookies from
// a logged-in browsing session to receive hydrated pages.
type DetailFetcher struct {
	client *resty.Client
	style  DetailURLStyle
}

// NewDetail creates an HTTP detail-page fetcher.
func NewDetail(style DetailURLStyle, cookies []*http.Cookie) *DetailFetcher {
	client := resty.New().
		SetHeader("User-Agent", detailUserAgent).
		SetHeader("Referer", "https://www.douyin.com/").
		SetHeader("Accept-Language", "zh-CN,zh;q=0.9")
	if len(cookies) > 0 {
		client.SetCookies(cookies)
	}
	return &DetailFetcher{client: client, style: style}
}

// Reset is a no-op: each request is independent, there is no shared
// observability state to discard.
func (f *DetailFetcher) Reset(ctx context.Context) error { return nil }

func (f *DetailFetcher) Fetch(ctx context.Context, id string) (any, error) {
	url := DetailURL(f.style, id)

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", id, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch detail %s: status %d", id, resp.StatusCode())
	}

	return ExtractRenderData(string(resp.Body()))
}
