package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructPrecedence(t *testing.T) {
	flowNodes := []Node{{ID: "f1", Type: NodeTypeEmail, Data: EmailData{Subject: "embedded"}}}
	legacyNodes := []Node{{ID: "l1", Type: NodeTypeEmail, Data: EmailData{Subject: "legacy"}}}
	topNodes := []Node{{ID: "t1", Type: NodeTypeEmail, Data: EmailData{Subject: "top"}}}

	t.Run("embedded flow wins", func(t *testing.T) {
		doc := Reconstruct(Plan{
			Flow:     &FlowDoc{Nodes: flowNodes},
			FlowJSON: &FlowDoc{Nodes: legacyNodes},
			Nodes:    topNodes,
		})
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, "f1", doc.Nodes[0].ID)
	})

	t.Run("flow_json beats top-level nodes", func(t *testing.T) {
		doc := Reconstruct(Plan{
			FlowJSON: &FlowDoc{Nodes: legacyNodes},
			Nodes:    topNodes,
		})
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, "l1", doc.Nodes[0].ID)
	})

	t.Run("top-level nodes used last", func(t *testing.T) {
		doc := Reconstruct(Plan{Nodes: topNodes})
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, "t1", doc.Nodes[0].ID)
	})

	t.Run("empty flow document is skipped", func(t *testing.T) {
		doc := Reconstruct(Plan{Flow: &FlowDoc{}, Nodes: topNodes})
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, "t1", doc.Nodes[0].ID)
	})
}

func TestReconstructSynthesis(t *testing.T) {
	vars := NewVars()
	vars.Set("first_name", "Jo")

	doc := Reconstruct(Plan{
		Name:           "Welcome series",
		Subject:        "Hello",
		Content:        "Hi {{first_name}}",
		TriggerType:    TriggerOnSignup,
		RecipientEmail: "jo@example.com",
		TemplateVars:   vars,
	})

	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)

	trigger := doc.Nodes[0]
	email := doc.Nodes[1]

	assert.Equal(t, NodeTypeTrigger, trigger.Type)
	assert.Equal(t, Position{X: 100, Y: 120}, trigger.Position)
	assert.Equal(t, TriggerOnSignup, trigger.Data.(TriggerData).TriggerType)

	assert.Equal(t, NodeTypeEmail, email.Type)
	assert.Equal(t, Position{X: 420, Y: 120}, email.Position)
	emailData := email.Data.(EmailData)
	assert.Equal(t, "Welcome series", emailData.Label)
	assert.Equal(t, "Hello", emailData.Subject)
	assert.Equal(t, "Hi {{first_name}}", emailData.Body)
	assert.Equal(t, "jo@example.com", emailData.RecipientEmail)
	assert.Equal(t, map[string]string{"first_name": "Jo"}, emailData.TemplateVars.Map())

	edge := doc.Edges[0]
	assert.Equal(t, trigger.ID, edge.Source)
	assert.Equal(t, email.ID, edge.Target)
	assert.Equal(t, "e-"+trigger.ID+"-"+email.ID, edge.ID)

	t.Run("missing trigger type defaults", func(t *testing.T) {
		doc := Reconstruct(Plan{Name: "x"})
		assert.Equal(t, TriggerButtonClick, doc.Nodes[0].Data.(TriggerData).TriggerType)
	})
}

func TestFlatten(t *testing.T) {
	t.Run("complete flow", func(t *testing.T) {
		g := NewGraph(0, 0)
		trig, _ := g.AddNode(NodeTypeTrigger, Position{})
		g.UpdateNodeField(trig.ID, "trigger_type", string(TriggerOnSignup))
		email, _ := g.AddNode(NodeTypeEmail, Position{})
		g.UpdateNodeField(email.ID, "subject", "Welcome")
		g.UpdateNodeField(email.ID, "body", "Hi {{first_name}}")
		g.UpdateNodeField(email.ID, "recipient_email", "jo@example.com")
		g.Connect(trig.ID, email.ID)

		p := Flatten(g, "Onboarding")
		assert.Equal(t, "Onboarding", p.Name)
		assert.Equal(t, "Welcome", p.Subject)
		assert.Equal(t, "Hi {{first_name}}", p.Content)
		assert.Equal(t, TriggerOnSignup, p.TriggerType)
		assert.Equal(t, "jo@example.com", p.RecipientEmail)
		assert.Len(t, p.Flow.Nodes, 2)
		assert.Len(t, p.Flow.Edges, 1)
	})

	t.Run("defaults for an empty graph", func(t *testing.T) {
		g := NewGraph(0, 0)
		p := Flatten(g, "  ")
		assert.Equal(t, DefaultPlanName, p.Name)
		assert.Equal(t, DefaultSubject, p.Subject)
		assert.Equal(t, DefaultContent, p.Content)
		assert.Equal(t, TriggerButtonClick, p.TriggerType)
		assert.Equal(t, FallbackRecipient, p.RecipientEmail)
	})

	t.Run("recipient found on a later email node", func(t *testing.T) {
		g := NewGraph(0, 0)
		first, _ := g.AddNode(NodeTypeEmail, Position{})
		g.UpdateNodeField(first.ID, "subject", "s")
		second, _ := g.AddNode(NodeTypeEmail, Position{})
		g.UpdateNodeField(second.ID, "recipient_email", "later@example.com")

		p := Flatten(g, "x")
		assert.Equal(t, "later@example.com", p.RecipientEmail)
	})

	t.Run("email-shaped unknown node is used as fallback", func(t *testing.T) {
		g := NewGraph(0, 0)
		g.Load([]Node{{
			ID:   "m1",
			Type: NodeType("message"),
			Data: UnknownData{Fields: map[string]interface{}{
				"subject":         "From legacy",
				"body":            "old body",
				"recipient_email": "legacy@example.com",
			}},
		}}, nil)

		p := Flatten(g, "x")
		assert.Equal(t, "From legacy", p.Subject)
		assert.Equal(t, "old body", p.Content)
		assert.Equal(t, "legacy@example.com", p.RecipientEmail)
	})

	t.Run("trigger-shaped unknown node supplies the trigger type", func(t *testing.T) {
		g := NewGraph(0, 0)
		g.Load([]Node{{
			ID:   "s1",
			Type: NodeType("start"),
			Data: UnknownData{Fields: map[string]interface{}{
				"label":        "Start",
				"trigger_type": "on_signup",
			}},
		}}, nil)

		p := Flatten(g, "x")
		assert.Equal(t, TriggerOnSignup, p.TriggerType)
	})

	t.Run("empty name falls back to the email node label", func(t *testing.T) {
		g := NewGraph(0, 0)
		email, _ := g.AddNode(NodeTypeEmail, Position{})
		g.UpdateNodeField(email.ID, "label", "Welcome Mail")

		p := Flatten(g, "")
		assert.Equal(t, "Welcome Mail", p.Name)

		t.Run("explicit name still wins", func(t *testing.T) {
			assert.Equal(t, "Onboarding", Flatten(g, "Onboarding").Name)
		})
	})

	t.Run("alternate recipient and content keys on unknown nodes", func(t *testing.T) {
		g := NewGraph(0, 0)
		g.Load([]Node{{
			ID:   "m2",
			Type: NodeType("message"),
			Data: UnknownData{Fields: map[string]interface{}{
				"subject":   "Old shape",
				"content":   "legacy body",
				"recipient": "alt@example.com",
			}},
		}}, nil)

		p := Flatten(g, "x")
		assert.Equal(t, "legacy body", p.Content)
		assert.Equal(t, "alt@example.com", p.RecipientEmail)
	})
}

func TestNodeJSONRoundTrip(t *testing.T) {
	t.Run("typed variants", func(t *testing.T) {
		vars := NewVars()
		vars.Set("first_name", "Jo")
		in := Node{
			ID:       "email-1",
			Type:     NodeTypeEmail,
			Position: Position{X: 1, Y: 2},
			Data: EmailData{
				Label:        "Email",
				Subject:      "Hi",
				Body:         "Hello {{first_name}}",
				TemplateVars: vars,
			},
		}

		raw, err := json.Marshal(in)
		require.NoError(t, err)

		var out Node
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, in.ID, out.ID)
		data := out.Data.(EmailData)
		assert.Equal(t, "Hi", data.Subject)
		assert.Equal(t, map[string]string{"first_name": "Jo"}, data.TemplateVars.Map())
	})

	t.Run("unknown type keeps its payload", func(t *testing.T) {
		raw := []byte(`{"id":"x-1","type":"webhook","position":{"x":0,"y":0},"data":{"url":"https://example.com","retries":3}}`)

		var n Node
		require.NoError(t, json.Unmarshal(raw, &n))
		data, ok := n.Data.(UnknownData)
		require.True(t, ok)
		assert.Equal(t, "https://example.com", data.Fields["url"])

		reraw, err := json.Marshal(n)
		require.NoError(t, err)

		var again Node
		require.NoError(t, json.Unmarshal(reraw, &again))
		assert.Equal(t, data.Fields["url"], again.Data.(UnknownData).Fields["url"])
	})

	t.Run("missing data gets the type default", func(t *testing.T) {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(`{"id":"d-1","type":"delay","position":{"x":0,"y":0}}`), &n))
		assert.Equal(t, DelayData{Label: "Delay", Duration: 1, Unit: DelayHours}, n.Data)
	})
}
