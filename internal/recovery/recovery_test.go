package recovery

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_CleanInputMatchesDirectParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
	}{
		{"Array", `[{"id":"a","n":1},{"id":"b","n":2}]`, ArrayOfObjects},
		{"EmptyArray", `[]`, ArrayOfObjects},
		{"Object", `{"id":"a","tags":["x","y"],"macros":{"protein":30}}`, SingleObject},
		{"NestedBracesInStrings", `[{"note":"use {a} and [b]"}]`, ArrayOfObjects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var direct any
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &direct))

			res, err := Recover(tt.raw, tt.shape)
			require.NoError(t, err)
			assert.Equal(t, direct, res.Value)
			assert.False(t, res.Partial)
			assert.Zero(t, res.Dropped)
		})
	}
}

func TestRecover_StripsFenceAndCommentary(t *testing.T) {
	t.Run("JSONFence", func(t *testing.T) {
		res, err := Recover("```json\n[{\"id\":\"a\"}]\n```", ArrayOfObjects)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"id": "a"}}, res.Value)
	})

	t.Run("BareFence", func(t *testing.T) {
		res, err := Recover("```\n{\"id\":\"a\"}\n```", SingleObject)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "a"}, res.Value)
	})

	t.Run("LeadingCommentary", func(t *testing.T) {
		res, err := Recover(`Sure! Here are your recipes: [{"id":"a"}]`, ArrayOfObjects)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"id": "a"}}, res.Value)
	})

	t.Run("TrailingCommentary", func(t *testing.T) {
		res, err := Recover(`{"id":"a"} Let me know if you need more.`, SingleObject)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "a"}, res.Value)
		assert.False(t, res.Partial)
	})
}

func TestRecover_TruncatedArray(t *testing.T) {
	t.Run("DropsTrailingIncompleteElement", func(t *testing.T) {
		raw := `[{"id":"a","title":"Soup"},{"id":"b","title":"Stew"},{"id":"c","title":"Sal`
		res, err := Recover(raw, ArrayOfObjects)
		require.NoError(t, err)

		items := res.Value.([]any)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].(map[string]any)["id"])
		assert.Equal(t, "b", items[1].(map[string]any)["id"])
		assert.True(t, res.Partial)
		assert.Equal(t, 1, res.Dropped)
	})

	t.Run("OnlyClosingBracketMissing", func(t *testing.T) {
		res, err := Recover(`[{"id":"a"},{"id":"b"}`, ArrayOfObjects)
		require.NoError(t, err)
		assert.Len(t, res.Value.([]any), 2)
		assert.True(t, res.Partial)
		assert.Zero(t, res.Dropped)
	})

	t.Run("SingleClosedElement", func(t *testing.T) {
		res, err := Recover(`[{"id":"a"}, {"id":`, ArrayOfObjects)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"id": "a"}}, res.Value)
	})

	t.Run("CutInsideNestedObject", func(t *testing.T) {
		raw := `[{"id":"a","macros":{"protein":10}},{"id":"b","macros":{"prot`
		res, err := Recover(raw, ArrayOfObjects)
		require.NoError(t, err)
		items := res.Value.([]any)
		require.Len(t, items, 1)
		assert.Equal(t, map[string]any{"protein": float64(10)}, items[0].(map[string]any)["macros"])
	})

	t.Run("StringContainingClosingSequence", func(t *testing.T) {
		// A substring search for "}," would cut inside the second element's note.
		raw := `[{"id":"a"},{"id":"b","note":"odd text }, here"},{"id":"c","note":"tru`
		res, err := Recover(raw, ArrayOfObjects)
		require.NoError(t, err)
		items := res.Value.([]any)
		require.Len(t, items, 2)
		assert.Equal(t, "odd text }, here", items[1].(map[string]any)["note"])
	})

	t.Run("EscapedQuoteInString", func(t *testing.T) {
		raw := `[{"id":"a","note":"say \"hi}\""},{"id":"b","note":"x`
		res, err := Recover(raw, ArrayOfObjects)
		require.NoError(t, err)
		items := res.Value.([]any)
		require.Len(t, items, 1)
		assert.Equal(t, `say "hi}"`, items[0].(map[string]any)["note"])
	})

	t.Run("NoClosedElementFails", func(t *testing.T) {
		_, err := Recover(`[{"id":"a","title":"Sou`, ArrayOfObjects)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	})

	t.Run("BrokenMiddleElementKeepsLeadingOnes", func(t *testing.T) {
		res, err := Recover(`[{"id":"a"},{"id":},{"id":"c"}]`, ArrayOfObjects)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"id": "a"}}, res.Value)
		assert.True(t, res.Partial)
	})
}

func TestRecover_SingleObjectIsNotRepaired(t *testing.T) {
	_, err := Recover(`{"id":"a","title":"Sou`, SingleObject)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRecover_MissingOpeningDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
	}{
		{"EmptyText", "", ArrayOfObjects},
		{"PlainText", "I cannot help with that.", SingleObject},
		{"ObjectWhenArrayExpected", `{"id":"a"}`, ArrayOfObjects},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recover(tt.raw, tt.shape)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestRecover_Idempotent(t *testing.T) {
	inputs := []struct {
		raw   string
		shape Shape
	}{
		{`[{"id":"a"},{"id":"b","x":[1,2]},{"id":"c`, ArrayOfObjects},
		{"```json\n{\"id\":\"a\",\"n\":1.5}\n```", SingleObject},
	}

	for _, in := range inputs {
		first, err := Recover(in.raw, in.shape)
		require.NoError(t, err)

		encoded, err := json.Marshal(first.Value)
		require.NoError(t, err)

		second, err := Recover(string(encoded), in.shape)
		require.NoError(t, err)
		assert.Equal(t, first.Value, second.Value)
		assert.False(t, second.Partial)
	}
}

func TestRecoverObjects_SkipsNonObjects(t *testing.T) {
	objects, res, err := RecoverObjects(`[1, {"id":"a"}, "x", {"id":"b"}]`)
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Equal(t, []map[string]any{{"id": "a"}, {"id": "b"}}, objects)
}

func TestRecoverObject(t *testing.T) {
	obj, err := RecoverObject("```json\n{\"id\":\"r1\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "r1", obj["id"])

	_, err = RecoverObject("[]")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
