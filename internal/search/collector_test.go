package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localmark/content-crawler/internal/content"
)

type fakeSearcher struct {
	gotQuery string
	gotLimit int
	urls     []string
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]string, error) {
	f.gotQuery = query
	f.gotLimit = limit
	return f.urls, f.err
}

func newCollector(t *testing.T, searcher content.Searcher) *Collector {
	t.Helper()
	c, err := New(Config{}, searcher, nil)
	require.NoError(t, err)
	return c
}

func TestBuildQuery_ForcesRegion(t *testing.T) {
	t.Parallel()
	c := newCollector(t, &fakeSearcher{})

	q := c.BuildQuery("순두부", content.ModeNet)
	require.Contains(t, q, "강릉 순두부")
	require.Contains(t, q, "추천 리뷰")
	require.Contains(t, q, "site:blog.naver.com")
	require.Contains(t, q, "site:tistory.com")
}

func TestBuildQuery_RegionNotDoubled(t *testing.T) {
	t.Parallel()
	c := newCollector(t, &fakeSearcher{})

	q := c.BuildQuery("강릉 순두부", content.ModeNet)
	require.NotContains(t, q, "강릉 강릉")
}

func TestBuildQuery_StoreModeAsksForReviews(t *testing.T) {
	t.Parallel()
	c := newCollector(t, &fakeSearcher{})

	q := c.BuildQuery("초당 순두부집", content.ModeStore)
	require.Contains(t, q, "후기")
	require.NotContains(t, q, "추천 리뷰")
}

func TestCollect_FiltersAndDedupes(t *testing.T) {
	t.Parallel()
	searcher := &fakeSearcher{urls: []string{
		"https://blog.naver.com/abc/1",
		"https://news.example.com/article/9", // wrong host
		"https://cozy.tistory.com/42",
		"https://blog.naver.com/abc/1", // duplicate
	}}
	c := newCollector(t, searcher)

	urls, err := c.Collect(context.Background(), "순두부", content.ModeNet)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://blog.naver.com/abc/1",
		"https://cozy.tistory.com/42",
	}, urls)
	require.Equal(t, 40, searcher.gotLimit)
}

func TestCollect_EmptyKeywordRejected(t *testing.T) {
	t.Parallel()
	c := newCollector(t, &fakeSearcher{})

	_, err := c.Collect(context.Background(), "  ", content.ModeNet)
	require.Error(t, err)
}

func TestCollect_SearchErrorPropagates(t *testing.T) {
	t.Parallel()
	c := newCollector(t, &fakeSearcher{err: errors.New("quota exhausted")})

	_, err := c.Collect(context.Background(), "순두부", content.ModeNet)
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exhausted")
}
