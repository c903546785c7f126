package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// DetailURLStyle selects how per-item detail URLs are built.
type DetailURLStyle string

const (
	// StyleModal requests the curated-feed page with the item opened as
	// a modal overlay.
	StyleModal DetailURLStyle = "modal"
	// StyleVideo requests the direct video detail page.
	StyleVideo DetailURLStyle = "video"
)

// DetailURL builds the detail-view URL for an item identifier.
func DetailURL(style DetailURLStyle, id string) string {
	if style == StyleVideo {
		return "https://www.douyin.com/video/" + id
	}
	return "https://www.douyin.com/jingxuan?modal_id=" + id
}

var (
	videoPathRe = regexp.MustCompile(`/video/(\d{10,20})`)
	sharePathRe = regexp.MustCompile(`/share/video/(\d{10,20})`)
	modalRe     = regexp.MustCompile(`modal_id=(\d{10,20})`)
	firstURLRe  = regexp.MustCompile(`https?://\S+`)
)

// IDFromURL extracts the item identifier from a detail, share, or modal
// URL. Returns "" when no identifier is present.
func IDFromURL(raw string) string {
	for _, re := range []*regexp.Regexp{videoPathRe, sharePathRe, modalRe} {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

// FirstURL extracts the first http(s) URL embedded in free text,
// trimming trailing punctuation that sharing apps append.
func FirstURL(text string) string {
	m := firstURLRe.FindString(strings.TrimSpace(text))
	if m == "" {
		return ""
	}
	return strings.TrimRight(m, "，。！？!?,）)」《》<>\"'")
}

// IsShareHost reports whether a resolved URL landed on the short-link
// share host rather than the desktop site.
func IsShareHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Host, "iesdouyin.com") || strings.Contains(u.Host, "v.douyin.com")
}
