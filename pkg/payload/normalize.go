package payload

import (
	"encoding/json"
	"time"
)

// Record is the canonical per-item result after normalization.
type Record struct {
	ID           string    `json:"aweme_id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	DiggCount    int64     `json:"digg_count"`
	CommentCount int64     `json:"comment_count"`
	ShareCount   int64     `json:"share_count"`
	CollectCount int64     `json:"collect_count"`
	PlayCount    *int64    `json:"play_count,omitempty"`
	SourceURL    string    `json:"url,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// EngagementAbsent reports whether every count field is simultaneously
// zero. At this layer a structurally valid but all-zero record is
// indistinguishable from a payload that has not hydrated yet, so callers
// treat it as a retryable condition.
func (r Record) EngagementAbsent() bool {
	if r.DiggCount != 0 || r.CommentCount != 0 || r.ShareCount != 0 || r.CollectCount != 0 {
		return false
	}
	return r.PlayCount == nil || *r.PlayCount == 0
}

// Provenance records where and when a payload was obtained.
type Provenance struct {
	SourceURL string
	FetchedAt time.Time
}

// Alternate key names per canonical field, in lookup priority order.
// Schema drift upstream is absorbed by editing these tables.
var (
	titleKeys   = []string{"desc", "title", "awemeDesc"}
	authorKeys  = []string{"nickname", "nicknameName"}
	diggKeys    = []string{"diggCount", "digg_count"}
	commentKeys = []string{"commentCount", "comment_count"}
	shareKeys   = []string{"shareCount", "share_count"}
	collectKeys = []string{"collectCount", "collect_count"}
	playKeys    = []string{"playCount", "play_count"}
)

// Normalize maps a located node's heterogeneous keys into a Record. The
// node may be a full item record (identifier plus statistics container)
// or a bare statistics object from the narrow locator; both shapes
// resolve through the same alternate-key tables. Required count fields
// default to 0 when absent; play count stays unset when no variant key
// is present.
func Normalize(node map[string]any, prov Provenance) Record {
	rec := Record{
		ID:        ResolveID(node),
		Title:     firstString(node, titleKeys),
		SourceURL: prov.SourceURL,
		FetchedAt: prov.FetchedAt,
	}

	if author, ok := node["author"].(map[string]any); ok {
		rec.Author = firstString(author, authorKeys)
	}

	// Counts live in a statistics container when the node is a full item
	// record, or directly on the node when it is a bare statistics object.
	stats := node
	for _, key := range statsContainerKeys {
		if sub, ok := node[key].(map[string]any); ok {
			stats = sub
			break
		}
	}

	rec.DiggCount = firstCount(stats, diggKeys)
	rec.CommentCount = firstCount(stats, commentKeys)
	rec.ShareCount = firstCount(stats, shareKeys)
	rec.CollectCount = firstCount(stats, collectKeys)

	for _, key := range playKeys {
		if v, ok := stats[key]; ok && v != nil {
			play := countValue(v)
			rec.PlayCount = &play
			break
		}
	}

	return rec
}

func firstString(node map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := node[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstCount(node map[string]any, keys []string) int64 {
	for _, key := range keys {
		if v, ok := node[key]; ok && v != nil {
			return countValue(v)
		}
	}
	return 0
}

// countValue coerces a count that may arrive as a JSON number, an integer
// or a rendered string like "1.2万".
func countValue(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			if i < 0 {
				return 0
			}
			return i
		}
		if f, err := n.Float64(); err == nil && f > 0 {
			return int64(f)
		}
		return 0
	case float64:
		if n < 0 {
			return 0
		}
		return int64(n)
	case int64:
		if n < 0 {
			return 0
		}
		return n
	case string:
		return ParseCount(n)
	default:
		return 0
	}
}
