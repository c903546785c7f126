package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeFullRecord(t *testing.T) {
	node := map[string]any{
		"awemeId": "7123",
		"desc":    "a title",
		"author":  map[string]any{"nickname": "someone"},
		"stats": map[string]any{
			"diggCount":    float64(50),
			"commentCount": "1.2万",
			"shareCount":   float64(3),
			"collectCount": float64(0),
			"playCount":    float64(900),
		},
	}

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := Normalize(node, Provenance{SourceURL: "https://example.com/video/7123", FetchedAt: at})

	require.Equal(t, "7123", rec.ID)
	require.Equal(t, "a title", rec.Title)
	require.Equal(t, "someone", rec.Author)
	require.Equal(t, int64(50), rec.DiggCount)
	require.Equal(t, int64(12000), rec.CommentCount)
	require.Equal(t, int64(3), rec.ShareCount)
	require.Equal(t, int64(0), rec.CollectCount)
	require.NotNil(t, rec.PlayCount)
	require.Equal(t, int64(900), *rec.PlayCount)
	require.Equal(t, at, rec.FetchedAt)
	require.False(t, rec.EngagementAbsent())
}

func TestNormalizeSnakeCaseVariant(t *testing.T) {
	node := map[string]any{
		"aweme_id": "42",
		"title":    "snake",
		"statistics": map[string]any{
			"digg_count":    float64(7),
			"comment_count": float64(1),
			"share_count":   float64(2),
			"collect_count": float64(3),
		},
	}

	rec := Normalize(node, Provenance{})
	require.Equal(t, "42", rec.ID)
	require.Equal(t, "snake", rec.Title)
	require.Equal(t, int64(7), rec.DiggCount)
	require.Equal(t, int64(1), rec.CommentCount)
	require.Equal(t, int64(2), rec.ShareCount)
	require.Equal(t, int64(3), rec.CollectCount)
}

func TestNormalizeOptionalPlayCountStaysUnset(t *testing.T) {
	node := map[string]any{
		"awemeId": "1",
		"stats": map[string]any{
			"diggCount": float64(5),
		},
	}

	rec := Normalize(node, Provenance{})
	require.Nil(t, rec.PlayCount, "optional field must stay unset, not zero")
	// Required count fields absent from the payload default to 0.
	require.Equal(t, int64(0), rec.CommentCount)
	require.Equal(t, int64(0), rec.ShareCount)
	require.Equal(t, int64(0), rec.CollectCount)
}

func TestNormalizeBareStatisticsNode(t *testing.T) {
	// The narrow locator hands back a statistics object directly.
	node := map[string]any{
		"diggCount":    float64(11),
		"commentCount": float64(4),
		"shareCount":   float64(1),
		"collectCount": float64(2),
	}

	rec := Normalize(node, Provenance{})
	require.Empty(t, rec.ID)
	require.Equal(t, int64(11), rec.DiggCount)
	require.Equal(t, int64(4), rec.CommentCount)
}

func TestNormalizeNumberCounts(t *testing.T) {
	node := decodeTree(t, `{
		"group_id": 7401234567890123456,
		"statistics": {
			"digg_count": 9007199254740993,
			"comment_count": 12.0,
			"share_count": -4,
			"collect_count": 2
		}
	}`).(map[string]any)

	rec := Normalize(node, Provenance{})
	require.Equal(t, "7401234567890123456", rec.ID)
	// One above 2^53: exact only if decoded as json.Number.
	require.Equal(t, int64(9007199254740993), rec.DiggCount)
	require.Equal(t, int64(12), rec.CommentCount)
	require.Equal(t, int64(0), rec.ShareCount)
	require.Equal(t, int64(2), rec.CollectCount)
}

func TestNormalizeNegativeCountClampedToZero(t *testing.T) {
	node := map[string]any{
		"awemeId": "1",
		"stats":   map[string]any{"diggCount": float64(-3)},
	}
	rec := Normalize(node, Provenance{})
	require.Equal(t, int64(0), rec.DiggCount)
}

func TestEngagementAbsent(t *testing.T) {
	require.True(t, Record{}.EngagementAbsent())

	zero := int64(0)
	require.True(t, Record{PlayCount: &zero}.EngagementAbsent())

	play := int64(10)
	require.False(t, Record{PlayCount: &play}.EngagementAbsent())
	require.False(t, Record{DiggCount: 1}.EngagementAbsent())
}
