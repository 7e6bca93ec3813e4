package content

import (
	"net/url"
	"strings"
)

// HostAllowlist matches URL hosts against exact names and suffix wildcards
// ("*.tistory.com"). Search results are filtered through it so only the blog
// platforms the extraction prompt is tuned for reach the pipeline.
type HostAllowlist struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewHostAllowlist builds a matcher from configured patterns. Empty patterns
// are skipped; an empty matcher allows nothing.
func NewHostAllowlist(patterns []string) *HostAllowlist {
	matcher := &HostAllowlist{
		exact: make(map[string]struct{}),
	}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			matcher.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			matcher.addSuffix(strings.TrimPrefix(value, "."))
		default:
			matcher.exact[value] = struct{}{}
		}
	}
	return matcher
}

func (a *HostAllowlist) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range a.suffixes {
		if existing == suffix {
			return
		}
	}
	a.suffixes = append(a.suffixes, suffix)
}

// AllowsURL reports whether the URL parses and its host is allowed.
func (a *HostAllowlist) AllowsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return a.Allows(u.Hostname())
}

// Allows reports whether the host matches an exact entry or suffix.
func (a *HostAllowlist) Allows(host string) bool {
	if a == nil {
		return false
	}
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}
	if _, ok := a.exact[host]; ok {
		return true
	}
	for _, suffix := range a.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// FilterURLs keeps allowed URLs, preserving order and dropping duplicates.
func (a *HostAllowlist) FilterURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		if !a.AllowsURL(u) {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
