package flow

import (
	"fmt"
)

// DiagnosticFunc receives a note when an operation silently does
// nothing, such as an update aimed at a node that no longer exists.
type DiagnosticFunc func(op, id, detail string)

// Graph is the in-memory node/edge store behind one editing session.
// One session owns one Graph and no internal locking is done.
// Operations on missing ids are no-ops that report through the
// diagnostic hook instead of failing, since stale ids are routine
// while the canvas and panel race each other.
type Graph struct {
	nodes []Node
	edges []Edge

	maxNodes int
	maxEdges int

	diagnostic DiagnosticFunc
}

// NewGraph creates an empty graph with the given size limits. Limits
// of zero mean unlimited.
func NewGraph(maxNodes, maxEdges int) *Graph {
	return &Graph{maxNodes: maxNodes, maxEdges: maxEdges}
}

// SetDiagnostic installs the no-op observer. Passing nil disables it.
func (g *Graph) SetDiagnostic(fn DiagnosticFunc) {
	g.diagnostic = fn
}

func (g *Graph) report(op, id, detail string) {
	if g.diagnostic != nil {
		g.diagnostic(op, id, detail)
	}
}

// Reset replaces the graph contents with the single seed start node a
// fresh canvas shows.
func (g *Graph) Reset() {
	g.nodes = []Node{{
		ID:       NewNodeID(NodeTypeStart),
		Type:     NodeTypeStart,
		Position: Position{X: 250, Y: 50},
		Data:     DefaultData(NodeTypeStart),
	}}
	g.edges = nil
}

// Load replaces the graph contents wholesale.
func (g *Graph) Load(nodes []Node, edges []Edge) {
	g.nodes = append([]Node(nil), nodes...)
	g.edges = append([]Edge(nil), edges...)
}

// Nodes returns a copy of the node list in canvas order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// AddNode appends a node of type t at pos with that type's default
// payload and a fresh id. Returns the zero Node when the node limit
// is reached.
func (g *Graph) AddNode(t NodeType, pos Position) (Node, bool) {
	if g.maxNodes > 0 && len(g.nodes) >= g.maxNodes {
		g.report("add_node", string(t), "node limit reached")
		return Node{}, false
	}
	n := Node{
		ID:       NewNodeID(t),
		Type:     t,
		Position: pos,
		Data:     DefaultData(t),
	}
	g.nodes = append(g.nodes, n)
	return n, true
}

// RemoveNode deletes the node and every edge touching it. Missing ids
// are a no-op.
func (g *Graph) RemoveNode(id string) {
	idx := -1
	for i, n := range g.nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.report("remove_node", id, "node not found")
		return
	}

	g.nodes = append(g.nodes[:idx], g.nodes[idx+1:]...)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
}

// UpdateNodeField sets one data field on a node, replacing the node's
// payload with a modified copy. Unknown ids and fields the node's
// variant does not carry are no-ops.
func (g *Graph) UpdateNodeField(id, key string, value interface{}) {
	for i, n := range g.nodes {
		if n.ID != id {
			continue
		}
		data, ok := n.Data.SetField(key, value)
		if !ok {
			g.report("update_node_field", id, fmt.Sprintf("field %q not valid for %s node", key, n.Type))
			return
		}
		n.Data = data
		g.nodes[i] = n
		return
	}
	g.report("update_node_field", id, "node not found")
}

// SetNodeData replaces a node's payload wholesale.
func (g *Graph) SetNodeData(id string, data NodeData) {
	for i, n := range g.nodes {
		if n.ID == id {
			n.Data = data
			g.nodes[i] = n
			return
		}
	}
	g.report("set_node_data", id, "node not found")
}

// MoveNode applies a position change. Missing ids are a no-op.
func (g *Graph) MoveNode(id string, pos Position) {
	for i, n := range g.nodes {
		if n.ID == id {
			n.Position = pos
			g.nodes[i] = n
			return
		}
	}
	g.report("move_node", id, "node not found")
}

// Connect adds an edge from source to target. Both endpoints must
// exist, self-loops are rejected, and an identical edge is returned
// rather than duplicated.
func (g *Graph) Connect(source, target string) (Edge, bool) {
	if source == target {
		g.report("connect", source, "self connection")
		return Edge{}, false
	}
	if _, ok := g.NodeByID(source); !ok {
		g.report("connect", source, "source not found")
		return Edge{}, false
	}
	if _, ok := g.NodeByID(target); !ok {
		g.report("connect", target, "target not found")
		return Edge{}, false
	}
	for _, e := range g.edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	if g.maxEdges > 0 && len(g.edges) >= g.maxEdges {
		g.report("connect", source, "edge limit reached")
		return Edge{}, false
	}

	e := Edge{
		ID:     fmt.Sprintf("e-%s-%s", source, target),
		Source: source,
		Target: target,
	}
	g.edges = append(g.edges, e)
	return e, true
}

// RemoveEdge deletes an edge by id. Missing ids are a no-op.
func (g *Graph) RemoveEdge(id string) {
	for i, e := range g.edges {
		if e.ID == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return
		}
	}
	g.report("remove_edge", id, "edge not found")
}

// Validate checks a loaded graph for duplicate node ids and edges
// whose endpoints do not exist. Editing operations keep these
// invariants; Validate guards documents arriving from storage.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range g.edges {
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("edge %q references missing source %q", e.ID, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("edge %q references missing target %q", e.ID, e.Target)
		}
	}
	return nil
}
