package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmailSession(t *testing.T) (*Session, Node) {
	t.Helper()
	g := NewGraph(0, 0)
	n, ok := g.AddNode(NodeTypeEmail, Position{})
	require.True(t, ok)
	return NewSession(g), n
}

func TestSessionSelectMergesPlaceholders(t *testing.T) {
	s, n := newEmailSession(t)

	vars := NewVars()
	vars.Set("first_name", "Jo")
	s.Graph().UpdateNodeField(n.ID, "template_vars", vars)
	s.Graph().UpdateNodeField(n.ID, "body", "Hi {{first_name}}, weather in {{city}}?")

	s.Select(n.ID)

	assert.Equal(t, "first_name: Jo\ncity: ", s.TemplateText())
	assert.NoError(t, s.Err())

	// merged set is written back to the node
	node, _ := s.Selected()
	assert.Equal(t, map[string]string{"first_name": "Jo", "city": ""},
		node.Data.(EmailData).TemplateVars.Map())
}

func TestSessionSelectNonEmailNode(t *testing.T) {
	g := NewGraph(0, 0)
	n, _ := g.AddNode(NodeTypeDelay, Position{})
	s := NewSession(g)

	s.Select(n.ID)

	got, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "", s.TemplateText())
}

func TestSessionSetTemplateText(t *testing.T) {
	s, n := newEmailSession(t)
	s.Select(n.ID)

	t.Run("valid text writes through", func(t *testing.T) {
		s.SetTemplateText("first_name: Jo")
		assert.NoError(t, s.Err())

		node, _ := s.Selected()
		assert.Equal(t, map[string]string{"first_name": "Jo"},
			node.Data.(EmailData).TemplateVars.Map())
	})

	t.Run("parse error keeps the last good value", func(t *testing.T) {
		s.SetTemplateText(`["not", "an", "object"]`)
		assert.ErrorIs(t, s.Err(), ErrNonObjectJSON)
		// raw text stays as typed for display
		assert.Equal(t, `["not", "an", "object"]`, s.TemplateText())

		// the node still carries the last good set
		node, _ := s.Selected()
		assert.Equal(t, map[string]string{"first_name": "Jo"},
			node.Data.(EmailData).TemplateVars.Map())
	})

	t.Run("recovery clears the error", func(t *testing.T) {
		s.SetTemplateText("first_name: Ana")
		assert.NoError(t, s.Err())
		node, _ := s.Selected()
		assert.Equal(t, "Ana", node.Data.(EmailData).TemplateVars.Map()["first_name"])
	})
}

func TestSessionSetBodyMergesNewPlaceholders(t *testing.T) {
	s, n := newEmailSession(t)
	s.Select(n.ID)
	s.SetTemplateText("first_name: Jo")

	s.SetBody("Hi {{first_name}}, greetings from {{city}}")

	assert.Equal(t, "first_name: Jo\ncity: ", s.TemplateText())
	node, _ := s.Selected()
	data := node.Data.(EmailData)
	assert.Equal(t, "Hi {{first_name}}, greetings from {{city}}", data.Body)
	assert.Equal(t, map[string]string{"first_name": "Jo", "city": ""}, data.TemplateVars.Map())

	t.Run("removed placeholders keep their entries", func(t *testing.T) {
		s.SetBody("Hi {{first_name}}")
		node, _ := s.Selected()
		assert.Equal(t, map[string]string{"first_name": "Jo", "city": ""},
			node.Data.(EmailData).TemplateVars.Map())
	})
}

func TestSessionSetField(t *testing.T) {
	s, n := newEmailSession(t)
	s.Select(n.ID)

	s.SetField("subject", "Welcome aboard")
	node, _ := s.Selected()
	assert.Equal(t, "Welcome aboard", node.Data.(EmailData).Subject)

	t.Run("body edits route through placeholder merging", func(t *testing.T) {
		s.SetField("body", "Hi {{name}}")
		assert.Equal(t, "name: ", s.TemplateText())
	})

	t.Run("no selection is a no-op", func(t *testing.T) {
		s.ClearSelection()
		s.SetField("subject", "ignored")
		got, _ := s.Graph().NodeByID(n.ID)
		assert.Equal(t, "Welcome aboard", got.Data.(EmailData).Subject)
	})
}

func TestSessionRemoveSelected(t *testing.T) {
	s, n := newEmailSession(t)
	other, _ := s.Graph().AddNode(NodeTypeTrigger, Position{})
	s.Graph().Connect(other.ID, n.ID)

	s.Select(n.ID)
	s.RemoveSelected()

	_, exists := s.Graph().NodeByID(n.ID)
	assert.False(t, exists)
	assert.Equal(t, 0, s.Graph().EdgeCount())

	_, selected := s.Selected()
	assert.False(t, selected)
	assert.Equal(t, "", s.TemplateText())
}

func TestSessionSelectMissingNode(t *testing.T) {
	s, n := newEmailSession(t)
	s.Select(n.ID)
	s.Select("ghost")

	// selection is unchanged
	got, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, n.ID, got.ID)
}
