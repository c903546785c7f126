// Package collect accumulates unique item identifiers from scrolling
// feed sources, bounded by a total cap.
package collect

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// Two independent reference families appear in rendered feed content:
// direct video path links and modal overlay query parameters.
var (
	videoIDRe = regexp.MustCompile(`/video/(\d{10,20})`)
	modalIDRe = regexp.MustCompile(`modal_id=(\d{10,20})`)
)

// Collector drains feed sources for item identifiers. Identifiers are
// deduplicated across sources; insertion order is preserved so downstream
// iteration is deterministic for a given scan history.
type Collector struct {
	// Cap is the total identifier budget across all sources.
	Cap int
	// Dwell is how long to wait before the grace rescan when a scan
	// yields nothing new.
	Dwell time.Duration
	// Settle is how long to wait after an advance for the next render
	// cycle to land.
	Settle time.Duration

	sleep func(time.Duration)
}

// New creates a Collector with the given identifier cap.
func New(cap int) *Collector {
	return &Collector{
		Cap:    cap,
		Dwell:  3 * time.Second,
		Settle: 2 * time.Second,
		sleep:  time.Sleep,
	}
}

// Source is the minimal feed capability the collector needs.
type Source interface {
	Name() string
	Open(ctx context.Context) error
	Snapshot(ctx context.Context) (string, error)
	Advance(ctx context.Context) error
}

// Collect scans each source in order until the cap is reached or every
// source is exhausted. A source is only declared exhausted after two
// consecutive zero-yield scans, the second following a grace dwell and
// one extra advance: infinite-scroll content can lag the scroll trigger
// by a render cycle, so a single empty scan is not reliable evidence.
func (c *Collector) Collect(ctx context.Context, sources ...Source) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	for _, src := range sources {
		if len(ids) >= c.Cap {
			break
		}
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		if err := src.Open(ctx); err != nil {
			slog.Warn("open feed source", "source", src.Name(), "err", err)
			continue
		}

		var err error
		ids, err = c.drainSource(ctx, src, seen, ids)
		if err != nil {
			return ids, err
		}
	}

	return ids, nil
}

func (c *Collector) drainSource(ctx context.Context, src Source, seen map[string]bool, ids []string) ([]string, error) {
	graceUsed := false

	for len(ids) < c.Cap {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		html, err := src.Snapshot(ctx)
		if err != nil {
			slog.Warn("snapshot feed source", "source", src.Name(), "err", err)
			return ids, nil
		}

		added := 0
		for _, id := range ExtractIDs(html) {
			if len(ids) >= c.Cap {
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			added++
		}
		slog.Debug("feed scan",
			"source", src.Name(), "added", added, "total", len(ids))

		if added == 0 {
			if graceUsed {
				// Second strike: the post-grace rescan also came up
				// empty, this source is done.
				return ids, nil
			}
			graceUsed = true
			c.sleep(c.Dwell)
			if err := src.Advance(ctx); err != nil {
				slog.Warn("advance feed source", "source", src.Name(), "err", err)
				return ids, nil
			}
			c.sleep(c.Settle)
			continue
		}

		graceUsed = false
		if len(ids) >= c.Cap {
			break
		}
		if err := src.Advance(ctx); err != nil {
			slog.Warn("advance feed source", "source", src.Name(), "err", err)
			return ids, nil
		}
		c.sleep(c.Settle)
	}

	return ids, nil
}

// ExtractIDs pulls item identifiers from rendered feed content, union of
// both reference families in match order.
func ExtractIDs(html string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{videoIDRe, modalIDRe} {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			out = append(out, m[1])
		}
	}
	return out
}
