// Package payload locates and normalizes item records inside the untyped
// JSON trees the platform embeds in its pages and API responses. The
// payload schema is not stable: key naming drifts between camel-case and
// snake-case and nesting depth varies between page variants, so nodes are
// identified by declarative key-set predicates rather than fixed paths.
package payload

import (
	"encoding/json"
	"fmt"
	"sort"
)

// maxDepth bounds traversal so pathological or self-referential-looking
// trees terminate instead of blowing the stack.
const maxDepth = 30

// idKeys lists known identifier key variants in resolution priority order.
var idKeys = []string{"awemeId", "awemeIdStr", "aweme_id", "group_id"}

// statsContainerKeys mark a node as carrying engagement statistics.
var statsContainerKeys = []string{"stats", "statistics"}

// statsRequiredKeys is the narrow-variant required field set.
var statsRequiredKeys = []string{"diggCount", "commentCount", "shareCount", "collectCount"}

// Locate finds the best-matching item record node in a decoded JSON tree.
// A node qualifies when it carries at least one identifier key and at
// least one statistics container key. All qualifying nodes are collected;
// when targetID is non-empty the node whose resolved identifier equals it
// is preferred, otherwise the first node in traversal order wins.
// Traversal is parent-before-children with map keys visited in sorted
// order, so "first" is deterministic for a given tree.
func Locate(raw any, targetID string) (map[string]any, bool) {
	var found []map[string]any
	walkItemNodes(raw, 0, &found)
	if len(found) == 0 {
		return nil, false
	}

	if targetID != "" {
		for _, node := range found {
			if ResolveID(node) == targetID {
				return node, true
			}
		}
	}
	return found[0], true
}

func walkItemNodes(obj any, depth int, found *[]map[string]any) {
	if depth > maxDepth {
		return
	}

	switch v := obj.(type) {
	case map[string]any:
		if hasAnyKey(v, idKeys) && hasAnyKey(v, statsContainerKeys) {
			*found = append(*found, v)
		}
		for _, key := range sortedKeys(v) {
			walkItemNodes(v[key], depth+1, found)
		}
	case []any:
		for _, item := range v {
			walkItemNodes(item, depth+1, found)
		}
	}
	// Scalars and nulls are skipped silently.
}

// LocateStats is the narrower locator variant for payloads that embed a
// bare statistics object without the surrounding item record. It searches
// for a node whose keys are a superset of the four core count fields,
// descending into statistics containers before falling back to a full
// scan.
func LocateStats(raw any) (map[string]any, bool) {
	return findStats(raw, 0)
}

func findStats(obj any, depth int) (map[string]any, bool) {
	if depth > maxDepth {
		return nil, false
	}

	switch v := obj.(type) {
	case map[string]any:
		if hasAllKeys(v, statsRequiredKeys) {
			return v, true
		}
		for _, special := range statsContainerKeys {
			if sub, ok := v[special]; ok {
				if node, ok := findStats(sub, depth+1); ok {
					return node, true
				}
			}
		}
		for _, key := range sortedKeys(v) {
			if node, ok := findStats(v[key], depth+1); ok {
				return node, true
			}
		}
	case []any:
		for _, item := range v {
			if node, ok := findStats(item, depth+1); ok {
				return node, true
			}
		}
	}
	return nil, false
}

// ResolveID returns the node's identifier using the fixed key priority
// order, or "" when no identifier key holds a usable value.
func ResolveID(node map[string]any) string {
	for _, key := range idKeys {
		if s := scalarString(node[key]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders an id-like scalar as a string. Identifiers arrive
// as strings in some payload variants and as numbers in others; numeric
// ids come through as json.Number so their full precision survives.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return fmt.Sprintf("%.0f", s)
	case int64:
		return fmt.Sprintf("%d", s)
	default:
		return ""
	}
}

func hasAnyKey(node map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := node[k]; ok {
			return true
		}
	}
	return false
}

func hasAllKeys(node map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := node[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(node map[string]any) []string {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
