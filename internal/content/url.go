package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkTarget = regexp.MustCompile(`\((https?://[^)]+)\)`)

// UnwrapMarkdownLink extracts the target URL from Markdown link syntax like
// "[text](https://example.com)". Inputs without link syntax pass through.
func UnwrapMarkdownLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "](") {
		return raw
	}
	if m := markdownLinkTarget.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// MobileBlogURL rewrites a desktop Naver blog URL to its mobile form, which
// exposes post images more reliably than the desktop markup. Anything that is
// not a Naver blog URL, or fails to parse, is returned unchanged.
func MobileBlogURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.Contains(u.Hostname(), "blog.naver.com") {
		return raw
	}

	q := u.Query()
	blogID := q.Get("blogId")
	logNo := q.Get("logNo")
	if blogID != "" && logNo != "" {
		return fmt.Sprintf("https://m.blog.naver.com/%s/%s", blogID, logNo)
	}

	parts := splitPath(u.Path)
	if len(parts) >= 2 {
		return fmt.Sprintf("https://m.blog.naver.com/%s/%s", parts[0], parts[1])
	}
	return raw
}

// NormalizeURL canonicalizes an arbitrary input URL: Markdown unwrapping
// followed by the mobile-domain rewrite. It never fails; malformed input is
// returned as-is so the caller can still attempt a fetch.
func NormalizeURL(raw string) string {
	return MobileBlogURL(UnwrapMarkdownLink(raw))
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
