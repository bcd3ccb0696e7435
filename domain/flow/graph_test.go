package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphAddNode(t *testing.T) {
	g := NewGraph(0, 0)

	n, ok := g.AddNode(NodeTypeEmail, Position{X: 10, Y: 20})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(n.ID, "email-"))
	assert.Equal(t, NodeTypeEmail, n.Type)
	assert.Equal(t, Position{X: 10, Y: 20}, n.Position)

	data, isEmail := n.Data.(EmailData)
	require.True(t, isEmail)
	assert.Equal(t, "Email", data.Label)

	t.Run("ids are unique", func(t *testing.T) {
		m, _ := g.AddNode(NodeTypeEmail, Position{})
		assert.NotEqual(t, n.ID, m.ID)
	})

	t.Run("node limit", func(t *testing.T) {
		small := NewGraph(1, 0)
		_, ok := small.AddNode(NodeTypeEmail, Position{})
		require.True(t, ok)
		_, ok = small.AddNode(NodeTypeEmail, Position{})
		assert.False(t, ok)
	})
}

func TestGraphUpdateNodeField(t *testing.T) {
	g := NewGraph(0, 0)
	n, _ := g.AddNode(NodeTypeEmail, Position{})

	before, _ := g.NodeByID(n.ID)

	g.UpdateNodeField(n.ID, "subject", "Welcome!")

	after, _ := g.NodeByID(n.ID)
	assert.Equal(t, "Welcome!", after.Data.(EmailData).Subject)
	// the snapshot taken before the update is unaffected
	assert.Equal(t, "", before.Data.(EmailData).Subject)

	t.Run("field not carried by the variant is a no-op", func(t *testing.T) {
		var noted []string
		g.SetDiagnostic(func(op, id, detail string) {
			noted = append(noted, op)
		})
		g.UpdateNodeField(n.ID, "duration", 5)

		got, _ := g.NodeByID(n.ID)
		assert.Equal(t, "Welcome!", got.Data.(EmailData).Subject)
		assert.Equal(t, []string{"update_node_field"}, noted)
	})

	t.Run("missing node is a no-op", func(t *testing.T) {
		g.SetDiagnostic(nil)
		g.UpdateNodeField("nope", "subject", "x")
	})
}

func TestGraphRemoveNodeCascades(t *testing.T) {
	g := NewGraph(0, 0)
	a, _ := g.AddNode(NodeTypeTrigger, Position{})
	b, _ := g.AddNode(NodeTypeEmail, Position{})
	c, _ := g.AddNode(NodeTypeEmail, Position{})

	_, ok := g.Connect(a.ID, b.ID)
	require.True(t, ok)
	_, ok = g.Connect(b.ID, c.ID)
	require.True(t, ok)
	_, ok = g.Connect(a.ID, c.ID)
	require.True(t, ok)

	g.RemoveNode(b.ID)

	assert.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, a.ID, g.Edges()[0].Source)
	assert.Equal(t, c.ID, g.Edges()[0].Target)

	t.Run("removing again is a no-op", func(t *testing.T) {
		g.RemoveNode(b.ID)
		assert.Equal(t, 2, g.NodeCount())
	})
}

func TestGraphConnect(t *testing.T) {
	g := NewGraph(0, 0)
	a, _ := g.AddNode(NodeTypeTrigger, Position{})
	b, _ := g.AddNode(NodeTypeEmail, Position{})

	t.Run("valid connection", func(t *testing.T) {
		e, ok := g.Connect(a.ID, b.ID)
		require.True(t, ok)
		assert.Equal(t, "e-"+a.ID+"-"+b.ID, e.ID)
	})

	t.Run("duplicate returns the existing edge", func(t *testing.T) {
		e, ok := g.Connect(a.ID, b.ID)
		assert.True(t, ok)
		assert.Equal(t, 1, g.EdgeCount())
		assert.Equal(t, "e-"+a.ID+"-"+b.ID, e.ID)
	})

	t.Run("missing endpoint is rejected", func(t *testing.T) {
		_, ok := g.Connect(a.ID, "ghost")
		assert.False(t, ok)
		_, ok = g.Connect("ghost", b.ID)
		assert.False(t, ok)
	})

	t.Run("self loop is rejected", func(t *testing.T) {
		_, ok := g.Connect(a.ID, a.ID)
		assert.False(t, ok)
	})
}

func TestGraphMoveAndRemoveEdge(t *testing.T) {
	g := NewGraph(0, 0)
	a, _ := g.AddNode(NodeTypeTrigger, Position{})
	b, _ := g.AddNode(NodeTypeEmail, Position{})
	e, _ := g.Connect(a.ID, b.ID)

	g.MoveNode(a.ID, Position{X: 300, Y: 400})
	moved, _ := g.NodeByID(a.ID)
	assert.Equal(t, Position{X: 300, Y: 400}, moved.Position)

	g.RemoveEdge(e.ID)
	assert.Equal(t, 0, g.EdgeCount())
	g.RemoveEdge(e.ID) // no-op
}

func TestGraphReset(t *testing.T) {
	g := NewGraph(0, 0)
	g.AddNode(NodeTypeEmail, Position{})
	g.AddNode(NodeTypeDelay, Position{})

	g.Reset()

	require.Equal(t, 1, g.NodeCount())
	assert.Equal(t, NodeTypeStart, g.Nodes()[0].Type)
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraphValidate(t *testing.T) {
	g := NewGraph(0, 0)

	g.Load([]Node{
		{ID: "n1", Type: NodeTypeTrigger, Data: DefaultData(NodeTypeTrigger)},
		{ID: "n2", Type: NodeTypeEmail, Data: DefaultData(NodeTypeEmail)},
	}, []Edge{{ID: "e1", Source: "n1", Target: "n2"}})
	assert.NoError(t, g.Validate())

	t.Run("duplicate node id", func(t *testing.T) {
		g.Load([]Node{{ID: "n1"}, {ID: "n1"}}, nil)
		assert.Error(t, g.Validate())
	})

	t.Run("dangling edge", func(t *testing.T) {
		g.Load([]Node{{ID: "n1"}}, []Edge{{ID: "e1", Source: "n1", Target: "gone"}})
		assert.Error(t, g.Validate())
	})
}
