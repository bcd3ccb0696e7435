package flow

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeType identifies what a node on the canvas does.
type NodeType string

const (
	NodeTypeStart   NodeType = "start"
	NodeTypeTrigger NodeType = "trigger"
	NodeTypeEmail   NodeType = "email"
	NodeTypeDelay   NodeType = "delay"
)

// TriggerType is the condition that starts a flow.
type TriggerType string

const (
	TriggerOnSignup    TriggerType = "on_signup"
	TriggerAfterOneDay TriggerType = "after_1_day"
	TriggerButtonClick TriggerType = "button_click"
)

// DelayUnit is the unit of a delay node's duration.
type DelayUnit string

const (
	DelayMinutes DelayUnit = "minutes"
	DelayHours   DelayUnit = "hours"
	DelayDays    DelayUnit = "days"
)

// Position is a node's canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one element of a flow graph. Type tags which NodeData
// variant Data holds.
type Node struct {
	ID       string
	Type     NodeType
	Position Position
	Data     NodeData
}

// Edge connects two nodes by id.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeData is the typed payload carried by a node. Implementations are
// value types; SetField returns a modified copy so callers get
// copy-on-write semantics. ok is false when the key does not belong to
// the variant.
type NodeData interface {
	SetField(key string, value interface{}) (data NodeData, ok bool)
	Clone() NodeData
}

// TriggerData is the payload of a trigger node.
type TriggerData struct {
	Label       string      `json:"label,omitempty"`
	TriggerType TriggerType `json:"trigger_type"`
}

func (d TriggerData) SetField(key string, value interface{}) (NodeData, bool) {
	switch key {
	case "label":
		d.Label = toString(value)
	case "trigger_type":
		d.TriggerType = TriggerType(toString(value))
	default:
		return d, false
	}
	return d, true
}

func (d TriggerData) Clone() NodeData { return d }

// EmailData is the payload of an email node.
type EmailData struct {
	Label          string `json:"label,omitempty"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Body           string `json:"body,omitempty"`
	TemplateVars   *Vars  `json:"template_vars,omitempty"`
}

func (d EmailData) SetField(key string, value interface{}) (NodeData, bool) {
	switch key {
	case "label":
		d.Label = toString(value)
	case "recipient_email":
		d.RecipientEmail = toString(value)
	case "subject":
		d.Subject = toString(value)
	case "body":
		d.Body = toString(value)
	case "template_vars":
		switch v := value.(type) {
		case *Vars:
			d.TemplateVars = v
		case map[string]string:
			d.TemplateVars = VarsFromMap(v)
		default:
			return d, false
		}
	default:
		return d, false
	}
	return d, true
}

func (d EmailData) Clone() NodeData {
	d.TemplateVars = d.TemplateVars.Clone()
	return d
}

// DelayData is the payload of a delay node.
type DelayData struct {
	Label    string    `json:"label,omitempty"`
	Duration float64   `json:"duration"`
	Unit     DelayUnit `json:"unit"`
}

func (d DelayData) SetField(key string, value interface{}) (NodeData, bool) {
	switch key {
	case "label":
		d.Label = toString(value)
	case "duration":
		f, ok := toFloat(value)
		if !ok {
			return d, false
		}
		d.Duration = f
	case "unit":
		d.Unit = DelayUnit(toString(value))
	default:
		return d, false
	}
	return d, true
}

func (d DelayData) Clone() NodeData { return d }

// LabelData is the payload of a start node, which carries nothing but
// a display label.
type LabelData struct {
	Label string `json:"label,omitempty"`
}

func (d LabelData) SetField(key string, value interface{}) (NodeData, bool) {
	if key != "label" {
		return d, false
	}
	d.Label = toString(value)
	return d, true
}

func (d LabelData) Clone() NodeData { return d }

// UnknownData preserves the payload of a node type this version does
// not recognize. Fields are kept verbatim so round-trips are lossless.
type UnknownData struct {
	Fields map[string]interface{}
}

func (d UnknownData) SetField(key string, value interface{}) (NodeData, bool) {
	fields := make(map[string]interface{}, len(d.Fields)+1)
	for k, v := range d.Fields {
		fields[k] = v
	}
	fields[key] = value
	return UnknownData{Fields: fields}, true
}

func (d UnknownData) Clone() NodeData {
	fields := make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return UnknownData{Fields: fields}
}

func (d UnknownData) MarshalJSON() ([]byte, error) {
	if d.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.Fields)
}

// stringField pulls a string-valued key out of an unknown payload.
func (d UnknownData) stringField(key string) string {
	if v, ok := d.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (d UnknownData) hasField(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

// DefaultData returns the payload a freshly added node of type t gets.
func DefaultData(t NodeType) NodeData {
	switch t {
	case NodeTypeStart:
		return LabelData{Label: "Start"}
	case NodeTypeTrigger:
		return TriggerData{Label: "Trigger", TriggerType: TriggerButtonClick}
	case NodeTypeEmail:
		return EmailData{Label: "Email", TemplateVars: NewVars()}
	case NodeTypeDelay:
		return DelayData{Label: "Delay", Duration: 1, Unit: DelayHours}
	default:
		return UnknownData{Fields: map[string]interface{}{}}
	}
}

// NewNodeID mints a node id prefixed with its type so ids stay readable
// in persisted documents.
func NewNodeID(t NodeType) string {
	return fmt.Sprintf("%s-%s", t, uuid.New().String()[:8])
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON renders the node in the persisted document shape.
func (n Node) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data:     data,
	})
}

// UnmarshalJSON decodes a node, selecting the data variant by type.
// Unrecognized types keep their payload as UnknownData.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var env nodeJSON
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	n.ID = env.ID
	n.Type = env.Type
	n.Position = env.Position

	if len(env.Data) == 0 || string(env.Data) == "null" {
		n.Data = DefaultData(env.Type)
		return nil
	}

	switch env.Type {
	case NodeTypeStart:
		var d LabelData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		n.Data = d
	case NodeTypeTrigger:
		var d TriggerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		n.Data = d
	case NodeTypeEmail:
		var d EmailData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		n.Data = d
	case NodeTypeDelay:
		var d DelayData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		n.Data = d
	default:
		var fields map[string]interface{}
		if err := json.Unmarshal(env.Data, &fields); err != nil {
			return err
		}
		n.Data = UnknownData{Fields: fields}
	}
	return nil
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
