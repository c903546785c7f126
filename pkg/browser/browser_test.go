package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinkContextPropagatesCallerCancel(t *testing.T) {
	caller, cancelCaller := context.WithCancel(context.Background())
	linked, cleanup := linkContext(context.Background(), caller)
	defer cleanup()

	select {
	case <-linked.Done():
		t.Fatal("linked context done before anything was canceled")
	default:
	}

	cancelCaller()
	select {
	case <-linked.Done():
	case <-time.After(time.Second):
		t.Fatal("caller cancellation did not reach the linked context")
	}
	require.ErrorIs(t, linked.Err(), context.Canceled)
}

func TestLinkContextFollowsBase(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	linked, cleanup := linkContext(base, context.Background())
	defer cleanup()

	cancelBase()
	select {
	case <-linked.Done():
	case <-time.After(time.Second):
		t.Fatal("base cancellation did not reach the linked context")
	}
}

func TestLinkContextCleanupReleasesWatcher(t *testing.T) {
	caller, cancelCaller := context.WithCancel(context.Background())
	defer cancelCaller()

	linked, cleanup := linkContext(context.Background(), caller)
	cleanup()
	require.ErrorIs(t, linked.Err(), context.Canceled)
}
