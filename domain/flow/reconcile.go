package flow

import "strings"

// Defaults applied when flattening a graph whose email or trigger node
// is missing or incomplete.
const (
	DefaultPlanName    = "Untitled"
	DefaultSubject     = "No Subject"
	DefaultContent     = "No content"
	FallbackRecipient  = "test@example.com"
	DefaultTriggerKind = TriggerButtonClick
)

// Canvas positions for the two nodes synthesized from a flat legacy
// record.
var (
	synthTriggerPos = Position{X: 100, Y: 120}
	synthEmailPos   = Position{X: 420, Y: 120}
)

// SavePayload is the flattened document sent to and accepted by the
// plan endpoints: backend-required flat fields plus the full embedded
// flow, so old readers and the graph editor stay consistent.
type SavePayload struct {
	Name           string      `json:"name" validate:"required,max=200"`
	Subject        string      `json:"subject" validate:"required"`
	Content        string      `json:"content" validate:"required"`
	TriggerType    TriggerType `json:"trigger_type" validate:"required,oneof=on_signup after_1_day button_click"`
	RecipientEmail string      `json:"recipient_email" validate:"required,email"`
	TemplateVars   *Vars       `json:"template_vars,omitempty"`
	Flow           FlowDoc     `json:"flow"`
}

// Reconstruct derives the editable flow document for a plan. The
// embedded flow wins, then the legacy flow_json field, then top-level
// nodes/edges; a plan with none of those gets a two-node trigger-and-
// email flow synthesized from its flat fields.
func Reconstruct(p Plan) FlowDoc {
	if doc := pickDoc(p.Flow); doc != nil {
		return *doc
	}
	if doc := pickDoc(p.FlowJSON); doc != nil {
		return *doc
	}
	if p.Nodes != nil || p.Edges != nil {
		return FlowDoc{
			Nodes: append([]Node(nil), p.Nodes...),
			Edges: append([]Edge(nil), p.Edges...),
		}
	}
	return synthesize(p)
}

// pickDoc accepts a document that carries at least one of its sides,
// normalizing the missing side to empty.
func pickDoc(doc *FlowDoc) *FlowDoc {
	if doc == nil || (doc.Nodes == nil && doc.Edges == nil) {
		return nil
	}
	out := FlowDoc{
		Nodes: append([]Node(nil), doc.Nodes...),
		Edges: append([]Edge(nil), doc.Edges...),
	}
	return &out
}

func synthesize(p Plan) FlowDoc {
	triggerType := p.TriggerType
	if triggerType == "" {
		triggerType = DefaultTriggerKind
	}
	emailLabel := strings.TrimSpace(p.Name)
	if emailLabel == "" {
		emailLabel = "Email"
	}

	trigger := Node{
		ID:       NewNodeID(NodeTypeTrigger),
		Type:     NodeTypeTrigger,
		Position: synthTriggerPos,
		Data:     TriggerData{Label: "Trigger", TriggerType: triggerType},
	}
	email := Node{
		ID:       NewNodeID(NodeTypeEmail),
		Type:     NodeTypeEmail,
		Position: synthEmailPos,
		Data: EmailData{
			Label:          emailLabel,
			RecipientEmail: p.RecipientEmail,
			Subject:        p.Subject,
			Body:           p.Content,
			TemplateVars:   p.TemplateVars.Clone(),
		},
	}

	return FlowDoc{
		Nodes: []Node{trigger, email},
		Edges: []Edge{{
			ID:     "e-" + trigger.ID + "-" + email.ID,
			Source: trigger.ID,
			Target: email.ID,
		}},
	}
}

// Flatten projects the graph into the save payload: the first email
// node supplies subject, content, recipient and template vars, the
// first trigger node supplies the trigger type, and every missing
// piece falls back to a documented default so the flat fields are
// always populated. An empty plan name falls back to the primary email
// node's label before the default.
func Flatten(g *Graph, name string) SavePayload {
	nodes := g.Nodes()

	payload := SavePayload{
		Name:        strings.TrimSpace(name),
		Subject:     DefaultSubject,
		Content:     DefaultContent,
		TriggerType: DefaultTriggerKind,
		Flow: FlowDoc{
			Nodes: nodes,
			Edges: g.Edges(),
		},
	}

	if email, ok := primaryEmail(nodes); ok {
		if payload.Name == "" {
			payload.Name = strings.TrimSpace(email.Label)
		}
		if email.Subject != "" {
			payload.Subject = email.Subject
		}
		if email.Body != "" {
			payload.Content = email.Body
		}
		payload.TemplateVars = email.TemplateVars.Clone()
	}
	if payload.Name == "" {
		payload.Name = DefaultPlanName
	}

	if trigger, ok := primaryTrigger(nodes); ok && trigger.TriggerType != "" {
		payload.TriggerType = trigger.TriggerType
	}

	payload.RecipientEmail = RecipientFromNodes(nodes)
	return payload
}

// primaryEmail finds the node supplying the flat email fields: the
// first node typed email, or failing that the first node whose payload
// carries email-shaped fields under an unrecognized type. Legacy
// documents name the recipient and body "recipient" and "content", so
// those alternates are honored on unrecognized payloads.
func primaryEmail(nodes []Node) (EmailData, bool) {
	for _, n := range nodes {
		if n.Type == NodeTypeEmail {
			if d, ok := n.Data.(EmailData); ok {
				return d, true
			}
		}
	}
	for _, n := range nodes {
		if d, ok := n.Data.(UnknownData); ok {
			if d.hasField("subject") || d.hasField("body") || d.hasField("content") ||
				d.hasField("recipient_email") || d.hasField("recipient") {
				return EmailData{
					Label:          d.stringField("label"),
					RecipientEmail: firstNonEmpty(d.stringField("recipient_email"), d.stringField("recipient")),
					Subject:        d.stringField("subject"),
					Body:           firstNonEmpty(d.stringField("body"), d.stringField("content")),
				}, true
			}
		}
	}
	return EmailData{}, false
}

// primaryTrigger finds the node supplying the trigger type: the first
// node typed trigger, or failing that the first node whose payload
// carries a trigger_type under an unrecognized type.
func primaryTrigger(nodes []Node) (TriggerData, bool) {
	for _, n := range nodes {
		if n.Type == NodeTypeTrigger {
			if d, ok := n.Data.(TriggerData); ok {
				return d, true
			}
		}
	}
	for _, n := range nodes {
		if d, ok := n.Data.(UnknownData); ok {
			if d.hasField("trigger_type") {
				return TriggerData{
					Label:       d.stringField("label"),
					TriggerType: TriggerType(d.stringField("trigger_type")),
				}, true
			}
		}
	}
	return TriggerData{}, false
}

// RecipientFromNodes returns the first non-empty recipient found in
// the node list, or the placeholder address when no node names one.
// The placeholder keeps legacy readers that require a recipient happy;
// the flow runner resolves the real recipient per send.
func RecipientFromNodes(nodes []Node) string {
	for _, n := range nodes {
		switch d := n.Data.(type) {
		case EmailData:
			if d.RecipientEmail != "" {
				return d.RecipientEmail
			}
		case UnknownData:
			if r := firstNonEmpty(d.stringField("recipient_email"), d.stringField("recipient")); r != "" {
				return r
			}
		}
	}
	return FallbackRecipient
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
