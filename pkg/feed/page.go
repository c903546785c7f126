package feed

import "context"

// PageSource adapts an infinite-scroll page into a Source. Each snapshot
// is the page's full HTML; advancing scrolls to the bottom to trigger the
// next render cycle.
type PageSource struct {
	page Page
	name string
	url  string
}

// NewPage creates a page-backed source for the given feed URL.
func NewPage(page Page, name, url string) *PageSource {
	return &PageSource{page: page, name: name, url: url}
}

func (s *PageSource) Name() string { return s.name }

func (s *PageSource) Open(ctx context.Context) error {
	return s.page.Open(ctx, s.url)
}

func (s *PageSource) Snapshot(ctx context.Context) (string, error) {
	return s.page.HTML(ctx)
}

func (s *PageSource) Advance(ctx context.Context) error {
	return s.page.ScrollToBottom(ctx)
}
