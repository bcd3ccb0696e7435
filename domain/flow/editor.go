package flow

// Session is the state behind the node editing panel for one graph.
// Like Graph it is single-writer: one editing session, no locking.
//
// Template-variable text is kept twice: the raw text as typed, and the
// last successfully parsed set written through to the graph. While the
// text fails to parse the raw form is preserved for display and the
// node keeps its last good variables.
type Session struct {
	graph        *Graph
	selectedID   string
	templateText string
	parseErr     error
}

// NewSession creates an editing session over g.
func NewSession(g *Graph) *Session {
	return &Session{graph: g}
}

// Graph returns the session's underlying graph.
func (s *Session) Graph() *Graph { return s.graph }

// Selected returns the currently selected node, freshly read from the
// graph so panel and canvas cannot disagree.
func (s *Session) Selected() (Node, bool) {
	if s.selectedID == "" {
		return Node{}, false
	}
	return s.graph.NodeByID(s.selectedID)
}

// TemplateText returns the template-variable text as last typed or
// recomputed.
func (s *Session) TemplateText() string { return s.templateText }

// Err returns the current template parse error, nil when the text is
// well formed.
func (s *Session) Err() error { return s.parseErr }

// Select focuses a node. Selecting an email node recomputes its
// template variables: placeholders found in the body are merged in
// with empty values, existing values are kept, and the merged set is
// written back to the node so the panel and the stored node agree.
func (s *Session) Select(id string) {
	node, ok := s.graph.NodeByID(id)
	if !ok {
		s.graph.report("select", id, "node not found")
		return
	}

	s.selectedID = id
	s.parseErr = nil
	s.templateText = ""

	email, isEmail := node.Data.(EmailData)
	if !isEmail {
		return
	}

	merged := mergePlaceholders(email.TemplateVars, email.Body)
	s.templateText = EncodeVars(merged)
	s.graph.UpdateNodeField(id, "template_vars", merged)
}

// ClearSelection drops the selection and panel state.
func (s *Session) ClearSelection() {
	s.selectedID = ""
	s.templateText = ""
	s.parseErr = nil
}

// SetTemplateText records newly typed template-variable text. Text
// that parses is written through to the selected email node; text that
// does not parse is kept for display while the node retains its last
// good variables.
func (s *Session) SetTemplateText(text string) {
	s.templateText = text

	if _, ok := s.Selected(); !ok {
		return
	}

	vars, err := DecodeVars(text)
	if err != nil {
		s.parseErr = err
		return
	}
	s.parseErr = nil
	s.graph.UpdateNodeField(s.selectedID, "template_vars", vars)
}

// SetField writes one data field on the selected node. Body edits go
// through SetBody so placeholder merging keeps up.
func (s *Session) SetField(key string, value interface{}) {
	node, ok := s.Selected()
	if !ok {
		return
	}
	if key == "body" {
		s.SetBody(toString(value))
		return
	}
	s.graph.UpdateNodeField(node.ID, key, value)
}

// SetBody updates the selected email node's body and merges any newly
// introduced placeholders into the variable set without clobbering
// values the user already entered. Placeholders no longer present are
// deliberately kept.
func (s *Session) SetBody(body string) {
	node, ok := s.Selected()
	if !ok {
		return
	}

	s.graph.UpdateNodeField(node.ID, "body", body)

	email, isEmail := node.Data.(EmailData)
	if !isEmail {
		return
	}

	current := email.TemplateVars
	if s.parseErr == nil {
		if parsed, err := DecodeVars(s.templateText); err == nil {
			current = parsed
		}
	}

	merged := mergePlaceholders(current, body)
	s.templateText = EncodeVars(merged)
	s.parseErr = nil
	s.graph.UpdateNodeField(node.ID, "template_vars", merged)
}

// RemoveSelected deletes the selected node, cascading its edges, and
// clears the panel.
func (s *Session) RemoveSelected() {
	if s.selectedID == "" {
		return
	}
	s.graph.RemoveNode(s.selectedID)
	s.ClearSelection()
}

// mergePlaceholders returns existing vars plus an empty entry for
// every body placeholder not yet present. Existing entries keep their
// values and order; new ones append in order of first appearance.
func mergePlaceholders(existing *Vars, body string) *Vars {
	merged := existing.Clone()
	if merged == nil {
		merged = NewVars()
	}
	for _, name := range Placeholders(body) {
		if !merged.Has(name) {
			merged.Set(name, "")
		}
	}
	return merged
}
