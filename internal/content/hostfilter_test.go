package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostAllowlist_ExactAndSuffix(t *testing.T) {
	t.Parallel()

	a := NewHostAllowlist([]string{"blog.naver.com", "*.tistory.com"})

	require.True(t, a.Allows("blog.naver.com"))
	require.True(t, a.Allows("BLOG.NAVER.COM"))
	require.True(t, a.Allows("someshop.tistory.com"))
	require.True(t, a.Allows("tistory.com"))
	require.False(t, a.Allows("example.com"))
	require.False(t, a.Allows(""))
}

func TestHostAllowlist_FilterURLs(t *testing.T) {
	t.Parallel()

	a := NewHostAllowlist([]string{"blog.naver.com", "*.tistory.com"})

	in := []string{
		"https://blog.naver.com/abc/1",
		"https://news.example.com/post",
		"https://cafe.tistory.com/9",
		"https://blog.naver.com/abc/1", // duplicate
		"",
	}
	got := a.FilterURLs(in)
	require.Equal(t, []string{
		"https://blog.naver.com/abc/1",
		"https://cafe.tistory.com/9",
	}, got)
}

func TestHostAllowlist_NilAllowsNothing(t *testing.T) {
	t.Parallel()

	var a *HostAllowlist
	require.False(t, a.Allows("blog.naver.com"))
}
