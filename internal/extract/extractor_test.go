package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

// fakeGenerator scripts one response per model name.
type fakeGenerator struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeGenerator) Generate(_ context.Context, model, _ string) (string, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	return f.responses[model], nil
}

const validAnswer = `[{"title":"초당옥수수","content":"여름 한정","category":"카페","image_url":null,"reason":"적합한 이미지 없음"}]`

func newExtractor(t *testing.T, gen Generator, candidates ...string) *Extractor {
	t.Helper()
	e, err := New(Config{ModelCandidates: candidates}, gen, nil)
	require.NoError(t, err)
	return e
}

func TestExtract_FirstCandidateWins(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: map[string]string{"model-a": validAnswer}}
	e := newExtractor(t, gen, "model-a", "model-b")

	items, err := e.Extract(context.Background(), "page text", "맛집")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "초당옥수수", items[0].Title)
	require.Equal(t, []string{"model-a"}, gen.calls)
}

func TestExtract_FallsThroughOnErrorAndEmpty(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		errs:      map[string]error{"model-a": errors.New("quota exceeded")},
		responses: map[string]string{"model-b": "", "model-c": validAnswer},
	}
	e := newExtractor(t, gen, "model-a", "model-b", "model-c")

	items, err := e.Extract(context.Background(), "page text", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, []string{"model-a", "model-b", "model-c"}, gen.calls)
}

func TestExtract_AllCandidatesFail(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{errs: map[string]error{
		"model-a": errors.New("quota exceeded"),
		"model-b": errors.New("model not found"),
	}}
	e := newExtractor(t, gen, "model-a", "model-b")

	_, err := e.Extract(context.Background(), "page text", "")
	require.Error(t, err)
	require.Equal(t, content.StageExtract, content.StageOf(err))
	require.Contains(t, err.Error(), "model not found")
}

func TestExtract_GarbageAnswerIsParseErrorNotFallthrough(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: map[string]string{
		"model-a": "I cannot find any places in this text.",
		"model-b": validAnswer,
	}}
	e := newExtractor(t, gen, "model-a", "model-b")

	_, err := e.Extract(context.Background(), "page text", "")
	require.Error(t, err)
	require.Equal(t, content.StageParse, content.StageOf(err))
	require.Equal(t, []string{"model-a"}, gen.calls)
}

func TestExtract_PromptTruncation(t *testing.T) {
	t.Parallel()

	var captured string
	gen := &capturingGenerator{answer: validAnswer, prompt: &captured}
	e, err := New(Config{ModelCandidates: []string{"model-a"}, MaxPromptChars: 100}, gen, nil)
	require.NoError(t, err)

	long := strings.Repeat("강", 500)
	_, err = e.Extract(context.Background(), long, "")
	require.NoError(t, err)
	require.Contains(t, captured, strings.Repeat("강", 100))
	require.NotContains(t, captured, strings.Repeat("강", 101))
}

type capturingGenerator struct {
	answer string
	prompt *string
}

func (c *capturingGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	*c.prompt = prompt
	return c.answer, nil
}
