// Package fetch obtains raw candidate payloads for single items. Four
// adapters conform to the same contract: rendered DOM counters, inline
// page data, a captured network-response log, and a plain HTTP GET of
// the detail page.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors distinguish "nothing there" from "there but broken";
// the retry layer classifies both as recoverable but records different
// reasons.
var (
	// ErrNoPayload means the transport succeeded but no candidate
	// payload was present (missing data element, no matching response).
	ErrNoPayload = errors.New("no candidate payload found")
	// ErrBadPayload means a candidate was present but is not valid
	// structured data.
	ErrBadPayload = errors.New("candidate payload is not valid json")
)

// decodeJSON decodes a payload body into an untyped tree. Numbers are
// kept as json.Number: numeric identifiers run past 2^53 and would be
// rounded by a float64 round trip.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}

// Fetcher produces one raw candidate payload per item. The returned tree
// is a decoded JSON value (maps, slices, scalars).
type Fetcher interface {
	// Reset discards any stale per-item state (e.g. drains a shared
	// response log) so one item's fetch cannot observe another's
	// in-flight data. Called before every attempt.
	Reset(ctx context.Context) error
	// Fetch obtains the candidate payload for the item. Any error other
	// than ErrNoPayload/ErrBadPayload is a transport failure.
	Fetch(ctx context.Context, id string) (any, error)
}

// Chain tries fetchers in preference order, moving to the next only
// when the current one finds nothing. A broken payload or a transport
// failure stops the chain.
type Chain []Fetcher

func (c Chain) Reset(ctx context.Context) error {
	for _, f := range c {
		if err := f.Reset(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) Fetch(ctx context.Context, id string) (any, error) {
	for _, f := range c {
		data, err := f.Fetch(ctx, id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNoPayload) {
			return nil, err
		}
	}
	return nil, ErrNoPayload
}
