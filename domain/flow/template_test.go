package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVars(t *testing.T) {
	t.Run("colon lines", func(t *testing.T) {
		vars, err := DecodeVars("first_name: Jo\ncity: Berlin")
		require.NoError(t, err)
		assert.Equal(t, []string{"first_name", "city"}, vars.Keys())
		assert.Equal(t, map[string]string{"first_name": "Jo", "city": "Berlin"}, vars.Map())
	})

	t.Run("equals fallback and later duplicates win", func(t *testing.T) {
		vars, err := DecodeVars("a: 1\nb=2\na: 3")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "3", "b": "2"}, vars.Map())
		// overwritten key keeps its original position
		assert.Equal(t, []string{"a", "b"}, vars.Keys())
	})

	t.Run("colon wins over an earlier equals", func(t *testing.T) {
		vars, err := DecodeVars("url=https: example")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"url=https": "example"}, vars.Map())
	})

	t.Run("bare key becomes empty value", func(t *testing.T) {
		vars, err := DecodeVars("first_name")
		require.NoError(t, err)
		v, ok := vars.Get("first_name")
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("json object preserves key order", func(t *testing.T) {
		vars, err := DecodeVars(`{"z": "last", "a": "first", "n": 42}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "n"}, vars.Keys())
		n, _ := vars.Get("n")
		assert.Equal(t, "42", n)
	})

	t.Run("json object wins over line parsing", func(t *testing.T) {
		vars, err := DecodeVars(`{"a": "1"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1"}, vars.Map())
	})

	t.Run("non-object json is rejected", func(t *testing.T) {
		_, err := DecodeVars(`["a", "b"]`)
		assert.ErrorIs(t, err, ErrNonObjectJSON)

		_, err = DecodeVars(`"just a string"`)
		assert.ErrorIs(t, err, ErrNonObjectJSON)
	})

	t.Run("blank input yields empty set", func(t *testing.T) {
		vars, err := DecodeVars("   \n  ")
		require.NoError(t, err)
		assert.Equal(t, 0, vars.Len())
	})
}

func TestEncodeVars(t *testing.T) {
	t.Run("renders key colon value lines in order", func(t *testing.T) {
		vars := NewVars()
		vars.Set("first_name", "Jo")
		vars.Set("city", "")
		assert.Equal(t, "first_name: Jo\ncity: ", EncodeVars(vars))
	})

	t.Run("empty set encodes to empty string", func(t *testing.T) {
		assert.Equal(t, "", EncodeVars(NewVars()))
		assert.Equal(t, "", EncodeVars(nil))
	})

	t.Run("round trips through decode", func(t *testing.T) {
		vars := NewVars()
		vars.Set("first_name", "Jo")
		vars.Set("company", "Acme Inc")
		vars.Set("note", "")

		decoded, err := DecodeVars(EncodeVars(vars))
		require.NoError(t, err)
		assert.Equal(t, vars.Keys(), decoded.Keys())
		assert.Equal(t, vars.Map(), decoded.Map())
	})
}

func TestRenderTemplate(t *testing.T) {
	vars := NewVars()
	vars.Set("first_name", "Jo")

	t.Run("substitutes tight and spaced forms", func(t *testing.T) {
		got := RenderTemplate("Hi {{first_name}}, yes {{ first_name }}!", vars)
		assert.Equal(t, "Hi Jo, yes Jo!", got)
	})

	t.Run("leaves unknown placeholders alone", func(t *testing.T) {
		got := RenderTemplate("Hi {{last_name}}", vars)
		assert.Equal(t, "Hi {{last_name}}", got)
	})

	t.Run("no vars means no change", func(t *testing.T) {
		assert.Equal(t, "Hi {{x}}", RenderTemplate("Hi {{x}}", nil))
	})
}

func TestVarsMerge(t *testing.T) {
	base := NewVars()
	base.Set("a", "1")
	base.Set("b", "2")

	over := NewVars()
	over.Set("b", "9")
	over.Set("c", "3")

	merged := base.Merge(over)
	assert.Equal(t, []string{"a", "b", "c"}, merged.Keys())
	assert.Equal(t, map[string]string{"a": "1", "b": "9", "c": "3"}, merged.Map())
	// inputs untouched
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, base.Map())
}

func TestVarsJSON(t *testing.T) {
	vars := NewVars()
	vars.Set("z", "last")
	vars.Set("a", "first")

	raw, err := vars.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":"last","a":"first"}`, string(raw))

	var decoded Vars
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, []string{"z", "a"}, decoded.Keys())
}
