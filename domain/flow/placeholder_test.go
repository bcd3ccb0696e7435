package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	t.Run("extracts identifiers in order of first appearance", func(t *testing.T) {
		got := Placeholders("Hi {{first_name}}, welcome to {{city}}! Bye {{first_name}}.")
		assert.Equal(t, []string{"first_name", "city"}, got)
	})

	t.Run("tolerates whitespace inside braces", func(t *testing.T) {
		got := Placeholders("{{ first_name }} and {{last_name}}")
		assert.Equal(t, []string{"first_name", "last_name"}, got)
	})

	t.Run("ignores malformed tokens", func(t *testing.T) {
		assert.Nil(t, Placeholders("{first_name} {{first name}} {{}}"))
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Nil(t, Placeholders(""))
	})
}
