package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punic/dystats/pkg/fetch"
)

// fakeFetcher replays a scripted sequence of (payload, error) results.
type fakeFetcher struct {
	results []fakeResult
	calls   int
	resets  int
}

type fakeResult struct {
	raw any
	err error
}

func (f *fakeFetcher) Reset(ctx context.Context) error {
	f.resets++
	return nil
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (any, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i].raw, f.results[i].err
}

func goodPayload(id string, digg float64) any {
	return map[string]any{
		"awemeId": id,
		"desc":    "title",
		"stats": map[string]any{
			"diggCount":    digg,
			"commentCount": float64(1),
			"shareCount":   float64(0),
			"collectCount": float64(0),
		},
	}
}

func allNullPayload(id string) any {
	return map[string]any{
		"awemeId": id,
		"stats": map[string]any{
			"diggCount":    float64(0),
			"commentCount": float64(0),
			"shareCount":   float64(0),
			"collectCount": float64(0),
		},
	}
}

func newTestOrchestrator(f fetch.Fetcher, attempts int) *Orchestrator {
	o := NewOrchestrator(f, attempts, time.Second)
	o.sleep = func(time.Duration) {}
	o.now = func() time.Time { return time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC) }
	return o
}

func TestFetchWithRetrySucceedsFirstAttempt(t *testing.T) {
	f := &fakeFetcher{results: []fakeResult{{raw: goodPayload("7", 50)}}}
	out := newTestOrchestrator(f, 3).FetchWithRetry(context.Background(), "7")

	require.Equal(t, StatusSuccess, out.Status)
	require.Equal(t, int64(50), out.Record.DiggCount)
	require.Equal(t, 1, f.calls)
	require.Equal(t, 1, f.resets, "reset must precede every attempt")
}

func TestFetchWithRetryRecoversAfterTransportError(t *testing.T) {
	f := &fakeFetcher{results: []fakeResult{
		{err: errors.New("connection reset")},
		{raw: goodPayload("7", 5)},
	}}
	out := newTestOrchestrator(f, 3).FetchWithRetry(context.Background(), "7")

	require.Equal(t, StatusSuccess, out.Status)
	require.Equal(t, 2, f.calls)
	require.Equal(t, 2, f.resets)
}

func TestFetchWithRetryAllNullExhaustion(t *testing.T) {
	f := &fakeFetcher{results: []fakeResult{{raw: allNullPayload("7")}}}
	out := newTestOrchestrator(f, 2).FetchWithRetry(context.Background(), "7")

	require.Equal(t, StatusTerminal, out.Status)
	require.Equal(t, ReasonAllNull, out.Reason)
	require.Nil(t, out.Record)
	require.Equal(t, 2, f.calls, "maxAttempts is inclusive of the first attempt")
}

func TestFetchWithRetryReasonClassification(t *testing.T) {
	cases := []struct {
		name   string
		result fakeResult
		reason string
	}{
		{"transport", fakeResult{err: errors.New("boom")}, ReasonFetchError},
		{"no payload", fakeResult{err: fetch.ErrNoPayload}, ReasonNotFound},
		{"bad payload", fakeResult{err: fetch.ErrBadPayload}, ReasonParseError},
		{"no qualifying node", fakeResult{raw: map[string]any{"unrelated": "x"}}, ReasonNotFound},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeFetcher{results: []fakeResult{c.result}}
			out := newTestOrchestrator(f, 1).FetchWithRetry(context.Background(), "7")
			require.Equal(t, StatusTerminal, out.Status)
			require.Equal(t, c.reason, out.Reason)
		})
	}
}

func TestFetchWithRetryNarrowLocatorFallback(t *testing.T) {
	// No id-bearing node anywhere, but a bare statistics object with the
	// full required field set: the narrow variant must pick it up.
	raw := map[string]any{
		"page": map[string]any{
			"stats": map[string]any{
				"diggCount":    float64(9),
				"commentCount": float64(2),
				"shareCount":   float64(1),
				"collectCount": float64(1),
			},
		},
	}
	f := &fakeFetcher{results: []fakeResult{{raw: raw}}}
	out := newTestOrchestrator(f, 1).FetchWithRetry(context.Background(), "7")

	require.Equal(t, StatusSuccess, out.Status)
	require.Equal(t, "7", out.Record.ID, "id falls back to the requested identifier")
	require.Equal(t, int64(9), out.Record.DiggCount)
}

// recordingStore captures merge calls in order.
type recordingStore struct {
	keys     []string
	outcomes []Outcome
}

func (s *recordingStore) Merge(ctx context.Context, key string, outcome Outcome) error {
	s.keys = append(s.keys, key)
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func TestRunnerProcessesSortedAndMergesEverything(t *testing.T) {
	f := &fakeFetcher{results: []fakeResult{{raw: goodPayload("x", 3)}}}
	store := &recordingStore{}

	r := NewRunner(newTestOrchestrator(f, 1), store, 0, 0)
	r.sleep = func(time.Duration) {}

	sum, err := r.Run(context.Background(), []string{"30", "10", "20"})
	require.NoError(t, err)
	require.Equal(t, []string{"10", "20", "30"}, store.keys)
	require.Equal(t, 3, sum.Succeeded)
	require.Zero(t, sum.Failed)
}

func TestRunnerContinuesPastFailures(t *testing.T) {
	f := &fakeFetcher{results: []fakeResult{{err: errors.New("down")}}}
	store := &recordingStore{}

	r := NewRunner(newTestOrchestrator(f, 1), store, 0, 0)
	r.sleep = func(time.Duration) {}

	sum, err := r.Run(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Failed)
	require.Len(t, store.outcomes, 2)
	for _, out := range store.outcomes {
		require.Equal(t, StatusTerminal, out.Status)
		require.Equal(t, ReasonFetchError, out.Reason)
	}
}
