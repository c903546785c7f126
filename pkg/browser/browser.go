// Package browser runs the shared interactive browsing session through
// Chrome. It implements the page surface the feed sources scroll and the
// captured-response log the network fetcher scans. The session is a
// single stateful browsing context; callers drive it strictly
// sequentially.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/punic/dystats/pkg/fetch"
)

// maxCaptured bounds the response buffer so a long-lived session cannot
// grow without limit between drains.
const maxCaptured = 256

// Session is one Chrome browsing context.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending []capturedMeta
}

type capturedMeta struct {
	requestID    network.RequestID
	url          string
	mimeType     string
	resourceType string
}

// NewSession launches Chrome and starts capturing network responses.
func NewSession(parent context.Context, headless bool) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		ctxCancel()
		allocCancel()
	}

	s := &Session{ctx: ctx, cancel: cancel}

	chromedp.ListenTarget(ctx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.pending) >= maxCaptured {
			s.pending = s.pending[1:]
		}
		s.pending = append(s.pending, capturedMeta{
			requestID:    resp.RequestID,
			url:          resp.Response.URL,
			mimeType:     resp.Response.MimeType,
			resourceType: resp.Type.String(),
		})
	})

	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("enable network capture: %w", err)
	}

	return s, nil
}

// linkContext returns a child of base that is additionally canceled
// when caller is done. chromedp actions must run on a descendant of the
// session context, so caller cancellation is grafted on rather than
// passed through.
func linkContext(base, caller context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// run executes chromedp actions on the session, interruptible by the
// caller's context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := linkContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Open navigates the session to a URL.
func (s *Session) Open(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// HTML returns the current page's full markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// ScrollToBottom triggers one scroll step to load the next render cycle.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	err := s.run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil))
	if err != nil {
		return fmt.Errorf("scroll page: %w", err)
	}
	return nil
}

// Drain returns every response captured since the previous drain and
// clears the buffer. Bodies are fetched lazily here; responses whose
// body is already gone are skipped.
func (s *Session) Drain(ctx context.Context) ([]fetch.CapturedResponse, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var out []fetch.CapturedResponse
	for _, meta := range pending {
		var body []byte
		err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			body, err = network.GetResponseBody(meta.requestID).Do(ctx)
			return err
		}))
		if err != nil {
			continue
		}
		out = append(out, fetch.CapturedResponse{
			URL:          meta.url,
			MimeType:     meta.mimeType,
			ResourceType: meta.resourceType,
			Body:         body,
		})
	}
	return out, nil
}

// Cookies exports the session's cookies for use by the plain-HTTP detail
// fetcher.
func (s *Session) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var raw []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export cookies: %w", err)
	}

	cookies := make([]*http.Cookie, len(raw))
	for i, c := range raw {
		cookies[i] = &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
	}
	return cookies, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.cancel()
}

// SaveCookies writes cookies to a JSON file.
func SaveCookies(path string, cookies []*http.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file %s: %w", path, err)
	}
	return nil
}

// LoadCookies reads cookies from a JSON file written by SaveCookies.
func LoadCookies(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file %s: %w", path, err)
	}
	var cookies []*http.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	return cookies, nil
}
