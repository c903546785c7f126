package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// detailEndpoint is the substring that identifies the per-item detail
// API among the captured responses.
const detailEndpoint = "/aweme/v1/web/aweme/detail"

// CapturedResponse is one network response observed by the browsing
// session.
type CapturedResponse struct {
	URL          string
	MimeType     string
	ResourceType string
	Body         []byte
	Base64       bool
}

// ResponseLog exposes the browsing session's captured responses. Drain
// returns everything observed since the previous drain and clears the
// buffer.
type ResponseLog interface {
	Drain(ctx context.Context) ([]CapturedResponse, error)
}

// Navigator drives the shared browsing session to a URL.
type Navigator interface {
	Open(ctx context.Context, url string) error
}

// NetLogFetcher obtains payloads by navigating a live browsing session
// to the item's detail page and scanning the captured network responses
// for the detail API call. The session is a single stateful browsing
// context, so this fetcher must not be used concurrently.
type NetLogFetcher struct {
	nav    Navigator
	log    ResponseLog
	style  DetailURLStyle
	settle time.Duration
	sleep  func(time.Duration)
}

// NewNetLog creates a network-log fetcher. settle is how long to wait
// after navigation for the detail API call to land.
func NewNetLog(nav Navigator, log ResponseLog, style DetailURLStyle, settle time.Duration) *NetLogFetcher {
	return &NetLogFetcher{
		nav:    nav,
		log:    log,
		style:  style,
		settle: settle,
		sleep:  time.Sleep,
	}
}

// Reset drains and discards the response log so the previous item's
// responses cannot satisfy this item's scan.
func (f *NetLogFetcher) Reset(ctx context.Context) error {
	_, err := f.log.Drain(ctx)
	return err
}

func (f *NetLogFetcher) Fetch(ctx context.Context, id string) (any, error) {
	if err := f.nav.Open(ctx, DetailURL(f.style, id)); err != nil {
		return nil, fmt.Errorf("open detail page %s: %w", id, err)
	}
	f.sleep(f.settle)

	entries, err := f.log.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("drain response log %s: %w", id, err)
	}

	return ScanResponses(entries)
}

// ScanResponses finds the detail API response among captured entries and
// decodes its body. Only JSON XHR/Fetch responses to the detail endpoint
// are considered.
func ScanResponses(entries []CapturedResponse) (any, error) {
	for _, e := range entries {
		if !strings.Contains(e.MimeType, "application/json") {
			continue
		}
		if e.ResourceType != "" && e.ResourceType != "XHR" && e.ResourceType != "Fetch" {
			continue
		}
		if !strings.Contains(e.URL, detailEndpoint) {
			continue
		}

		body := e.Body
		if e.Base64 {
			decoded, err := base64.StdEncoding.DecodeString(string(body))
			if err != nil {
				continue
			}
			body = decoded
		}
		if len(body) == 0 {
			continue
		}

		return decodeJSON(body)
	}
	return nil, ErrNoPayload
}
