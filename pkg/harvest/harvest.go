// Package harvest drives the per-item fetch/locate/normalize cycle with
// bounded retries, and runs the full sequential pipeline against a
// reconciliation store.
package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/punic/dystats/pkg/fetch"
	"github.com/punic/dystats/pkg/payload"
)

// Orchestrator wraps a single-item fetch attempt with retry and failure
// classification.
type Orchestrator struct {
	Fetcher fetch.Fetcher
	// MaxAttempts bounds the retry loop, inclusive of the first attempt.
	MaxAttempts int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
	// DebugDir, when non-empty, receives one JSON file per fetched raw
	// payload for manual schema inspection.
	DebugDir string

	sleep func(time.Duration)
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator with the given retry budget.
func NewOrchestrator(f fetch.Fetcher, maxAttempts int, backoff time.Duration) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Orchestrator{
		Fetcher:     f,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// FetchWithRetry runs the fetch → locate → normalize cycle for one item,
// retrying recoverable failures up to MaxAttempts. Every exit path is a
// typed Outcome; nothing raises past this function.
//
// A structurally valid payload whose count fields are all zero is
// classified recoverable ("all_null"): at this layer it is
// indistinguishable from a not-yet-hydrated page, so a genuinely
// zero-engagement item costs a bounded number of redundant retries.
func (o *Orchestrator) FetchWithRetry(ctx context.Context, id string) Outcome {
	var last Outcome

	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		last = o.attempt(ctx, id)
		if last.Status == StatusSuccess {
			return last
		}
		slog.Debug("fetch attempt failed",
			"id", id, "attempt", attempt, "reason", last.Reason)

		if attempt < o.MaxAttempts {
			o.sleep(o.Backoff)
		}
	}

	return Terminal(last.Reason)
}

func (o *Orchestrator) attempt(ctx context.Context, id string) Outcome {
	// Discard stale state before the fetch so the previous item's
	// responses cannot satisfy this item's scan.
	if err := o.Fetcher.Reset(ctx); err != nil {
		return Recoverable(ReasonFetchError)
	}

	raw, err := o.Fetcher.Fetch(ctx, id)
	switch {
	case errors.Is(err, fetch.ErrBadPayload):
		return Recoverable(ReasonParseError)
	case errors.Is(err, fetch.ErrNoPayload):
		return Recoverable(ReasonNotFound)
	case err != nil:
		return Recoverable(ReasonFetchError)
	}

	if o.DebugDir != "" {
		o.dumpRawPayload(id, raw)
	}

	node, ok := payload.Locate(raw, id)
	if !ok {
		// The richer node search found nothing; fall back to the narrow
		// statistics-superset variant.
		node, ok = payload.LocateStats(raw)
	}
	if !ok {
		return Recoverable(ReasonNotFound)
	}

	rec := payload.Normalize(node, payload.Provenance{
		SourceURL: fetch.DetailURL(fetch.StyleVideo, id),
		FetchedAt: o.now().UTC(),
	})
	if rec.ID == "" {
		rec.ID = id
	}

	if rec.EngagementAbsent() {
		return Recoverable(ReasonAllNull)
	}
	return Success(rec)
}

func (o *Orchestrator) dumpRawPayload(id string, raw any) {
	if err := os.MkdirAll(o.DebugDir, 0o755); err != nil {
		slog.Warn("create debug dir", "err", err)
		return
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(o.DebugDir, "payload_"+id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("write debug payload", "id", id, "err", err)
	}
}

// Merger is the slice of the reconciliation store the runner needs.
type Merger interface {
	Merge(ctx context.Context, key string, outcome Outcome) error
}

// Runner processes a batch of identifiers strictly sequentially: the
// upstream session is a single stateful browsing context, so one item's
// full cycle completes before the next begins.
type Runner struct {
	Orchestrator *Orchestrator
	Store        Merger
	// CooldownMin/Max bound the randomized pause between items.
	CooldownMin time.Duration
	CooldownMax time.Duration

	sleep func(time.Duration)
	rand  *rand.Rand
}

// NewRunner creates a pipeline runner.
func NewRunner(o *Orchestrator, store Merger, cooldownMin, cooldownMax time.Duration) *Runner {
	return &Runner{
		Orchestrator: o,
		Store:        store,
		CooldownMin:  cooldownMin,
		CooldownMax:  cooldownMax,
		sleep:        time.Sleep,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Summary counts per-run outcomes.
type Summary struct {
	Succeeded int
	Failed    int
}

// Run processes each identifier once and merges its outcome. Identifiers
// are sorted first so a run over a fixed id set is deterministic. A
// failing item degrades to a recorded failure row; only context
// cancellation stops the run early.
func (r *Runner) Run(ctx context.Context, ids []string) (Summary, error) {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var sum Summary
	for i, id := range sorted {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		outcome := r.Orchestrator.FetchWithRetry(ctx, id)
		if err := r.Store.Merge(ctx, id, outcome); err != nil {
			slog.Error("merge outcome", "id", id, "err", err)
		}

		if outcome.OK() {
			sum.Succeeded++
			slog.Info("item harvested",
				"id", id,
				"digg", outcome.Record.DiggCount,
				"comment", outcome.Record.CommentCount)
		} else {
			sum.Failed++
			slog.Warn("item failed", "id", id, "reason", outcome.Reason)
		}

		if i < len(sorted)-1 {
			r.sleep(r.cooldown())
		}
	}
	return sum, nil
}

func (r *Runner) cooldown() time.Duration {
	if r.CooldownMax <= r.CooldownMin {
		return r.CooldownMin
	}
	return r.CooldownMin + time.Duration(r.rand.Int63n(int64(r.CooldownMax-r.CooldownMin)))
}
