package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	require.Equal(t, "m.blog.naver.com", SanitizeSite("https://m.blog.naver.com/abc/1"))
	require.Equal(t, "example.com", SanitizeSite("example.com/path"))
	require.Equal(t, "unknown", SanitizeSite("http://%zz"))
	require.Equal(t, "unknown", SanitizeSite(""))
}

func TestInitIsIdempotentAndObserversDoNotPanic(t *testing.T) {
	Init()
	Init()

	require.NotPanics(t, func() {
		ObservePipeline("https://blog.naver.com/a/1", "ingested", time.Second)
		ObserveRowsInserted(3)
		ObserveScrape("firecrawl", 2*time.Second)
		ObserveModelRequest("gemini-1.5-flash", "ok")
		ObserveFallthroughDepth(2)
		ObserveStoreSync()
		ObserveBatchItem("duplicate")
		ObserveThrottleWait(2 * time.Second)
	})
}
