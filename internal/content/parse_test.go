package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseItems_FencedArray(t *testing.T) {
	t.Parallel()

	items, err := ParseItems("```json\n[{\"title\":\"x\"}]\n```")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "x", items[0].Title)
}

func TestParseItems_BareObjectCoercedToSlice(t *testing.T) {
	t.Parallel()

	items, err := ParseItems(`{"title":"x"}`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "x", items[0].Title)
}

func TestParseItems_SurroundingProse(t *testing.T) {
	t.Parallel()

	raw := "Here is the result you asked for:\n" +
		`[{"title":"a","content":"b","category":"맛집","image_url":"https://img/1.jpg","reason":"ok"}]` +
		"\nLet me know if you need anything else {with braces}."
	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "a", items[0].Title)
	require.NotNil(t, items[0].ImageURL)
	require.Equal(t, "https://img/1.jpg", *items[0].ImageURL)
}

func TestParseItems_NestedObjectsInsideArray(t *testing.T) {
	t.Parallel()

	// First-open/last-close slicing would break here; the balanced decoder must not.
	raw := `[{"title":"a"},{"title":"b"}] trailing ]`
	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestParseItems_NullImageURL(t *testing.T) {
	t.Parallel()

	items, err := ParseItems(`[{"title":"x","image_url":null,"reason":"지도 사진뿐"}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, items[0].ImageURL)
	require.Equal(t, "지도 사진뿐", items[0].Reason)
}

func TestParseItems_NoPayload(t *testing.T) {
	t.Parallel()

	_, err := ParseItems("the model refused to answer")
	require.Error(t, err)
	require.Equal(t, StageParse, StageOf(err))
}

func TestParseItems_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseItems(`[{"title": "x"`)
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageParse, se.Stage)
	require.NotEmpty(t, se.Err.Error())
}
