// Package feed defines the contract for the scrolling/paginated sources
// the collector drains for item identifiers, plus the built-in adapters.
package feed

import "context"

// Source is one identifier feed. The collector repeatedly snapshots the
// rendered content and advances the source until it stops yielding new
// identifiers.
type Source interface {
	Name() string
	// Open prepares the source (navigates to its URL, fetches the feed).
	Open(ctx context.Context) error
	// Snapshot returns the current rendered content as text. Identifier
	// extraction happens on the raw text, so any representation that
	// surfaces item references works.
	Snapshot(ctx context.Context) (string, error)
	// Advance triggers one scroll/pagination step.
	Advance(ctx context.Context) error
}

// Page is a navigable browsing surface, typically a browser tab. It is
// the only capability the page-backed source needs.
type Page interface {
	Open(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
}
