package payload

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeTree decodes like the fetch adapters do: numbers stay
// json.Number so identifier precision survives.
func decodeTree(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestLocatePrefersTargetID(t *testing.T) {
	tree := decodeTree(t, `{
		"app": {
			"list": [
				{"awemeId": "111", "stats": {"diggCount": 5}},
				{"awemeId": "222", "stats": {"diggCount": 9}}
			]
		}
	}`)

	node, ok := Locate(tree, "222")
	require.True(t, ok)
	require.Equal(t, "222", ResolveID(node))
}

func TestLocateFallsBackToFirstInTraversalOrder(t *testing.T) {
	tree := decodeTree(t, `{
		"a_first": {"aweme_id": "100", "statistics": {"digg_count": 1}},
		"z_last":  {"aweme_id": "200", "statistics": {"digg_count": 2}}
	}`)

	node, ok := Locate(tree, "")
	require.True(t, ok)
	require.Equal(t, "100", ResolveID(node))

	// An unknown target also falls back to the first qualifying node.
	node, ok = Locate(tree, "999")
	require.True(t, ok)
	require.Equal(t, "100", ResolveID(node))
}

func TestLocateRequiresBothKeyFamilies(t *testing.T) {
	onlyID := decodeTree(t, `{"awemeId": "1", "desc": "no stats here"}`)
	_, ok := Locate(onlyID, "")
	require.False(t, ok)

	onlyStats := decodeTree(t, `{"stats": {"diggCount": 3}}`)
	_, ok = Locate(onlyStats, "")
	require.False(t, ok)
}

func TestLocateSkipsScalarLeaves(t *testing.T) {
	tree := decodeTree(t, `{
		"numbers": [1, 2, 3],
		"text": "plain",
		"null": null,
		"nested": {"awemeIdStr": "777", "stats": {}}
	}`)

	node, ok := Locate(tree, "")
	require.True(t, ok)
	require.Equal(t, "777", ResolveID(node))
}

func TestLocateDepthCeiling(t *testing.T) {
	// Bury a qualifying node below the traversal ceiling; the locator
	// must terminate and report nothing rather than recurse forever.
	leaf := map[string]any{"awemeId": "1", "stats": map[string]any{}}
	tree := any(leaf)
	for i := 0; i < maxDepth+5; i++ {
		tree = map[string]any{"wrap": tree}
	}

	_, ok := Locate(tree, "")
	require.False(t, ok)
}

func TestLocateNumericIdentifier(t *testing.T) {
	tree := decodeTree(t, `{"group_id": 7401234567890123456, "statistics": {}}`)
	node, ok := Locate(tree, "")
	require.True(t, ok)
	require.Equal(t, "7401234567890123456", ResolveID(node))
}

func TestLocateTargetMatchesLargeNumericID(t *testing.T) {
	// Identifiers run past 2^53; a float64 round trip would round the
	// digits and the target comparison would miss, handing back the
	// wrong node.
	tree := decodeTree(t, `{
		"list": [
			{"group_id": 1111111111111111111, "statistics": {"digg_count": 1}},
			{"group_id": 7401234567890123456, "statistics": {"digg_count": 2}}
		]
	}`)

	node, ok := Locate(tree, "7401234567890123456")
	require.True(t, ok)
	require.Equal(t, "7401234567890123456", ResolveID(node))

	node, ok = Locate(tree, "1111111111111111111")
	require.True(t, ok)
	require.Equal(t, "1111111111111111111", ResolveID(node))
}

func TestLocateStatsSupersetMatch(t *testing.T) {
	tree := decodeTree(t, `{
		"page": {
			"videoDetail": {
				"stats": {
					"diggCount": 10, "commentCount": 2,
					"shareCount": 1, "collectCount": 4,
					"playCount": 99
				}
			}
		}
	}`)

	node, ok := LocateStats(tree)
	require.True(t, ok)
	require.Equal(t, json.Number("10"), node["diggCount"])
}

func TestLocateStatsRejectsPartialSet(t *testing.T) {
	tree := decodeTree(t, `{"stats": {"diggCount": 10, "commentCount": 2}}`)
	_, ok := LocateStats(tree)
	require.False(t, ok)
}

func TestLocateStatsPrefersStatsSubtree(t *testing.T) {
	tree := decodeTree(t, `{
		"aaa": {
			"diggCount": 1, "commentCount": 1, "shareCount": 1, "collectCount": 1
		},
		"statistics": {
			"inner": {
				"diggCount": 7, "commentCount": 7, "shareCount": 7, "collectCount": 7
			}
		}
	}`)

	node, ok := LocateStats(tree)
	require.True(t, ok)
	require.Equal(t, json.Number("7"), node["diggCount"])
}
