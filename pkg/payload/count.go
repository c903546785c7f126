package payload

import (
	"regexp"
	"strconv"
	"strings"
)

// emptyGlyphs are strings the page renders in place of a count when the
// value is unavailable, including the bare action labels shown before
// hydration.
var emptyGlyphs = map[string]bool{
	"":   true,
	"-":  true,
	"—":  true,
	"点赞": true,
	"评论": true,
	"分享": true,
	"收藏": true,
}

var firstNumberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseCount converts a rendered count string into an integer.
//
//	"1234"        -> 1234
//	"1,234"       -> 1234
//	"1.2万", "1.2w" -> 12000
//	"-", "点赞"    -> 0
//
// Unparseable input normalizes to 0, never an error. The result is never
// negative.
func ParseCount(text string) int64 {
	if v := parseCount(text); v > 0 {
		return v
	}
	return 0
}

func parseCount(text string) int64 {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "，", "")

	if emptyGlyphs[s] {
		return 0
	}

	// Ten-thousand magnitude suffix.
	if n, ok := strings.CutSuffix(s, "万"); ok {
		return tenThousands(n)
	}
	lower := strings.ToLower(s)
	if n, ok := strings.CutSuffix(lower, "w"); ok {
		return tenThousands(n)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}

	// Last resort: first numeric substring anywhere in the text.
	m := firstNumberRe.FindString(s)
	if m == "" {
		return 0
	}
	if strings.Contains(m, ".") {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func tenThousands(numPart string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
	if err != nil {
		return 0
	}
	return int64(f * 10000)
}
