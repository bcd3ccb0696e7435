package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNonObjectJSON is returned by DecodeVars when the input is valid
// JSON but not an object. Arrays and scalars are rejected rather than
// fed through the line parser, so the caller can surface a real error
// instead of a nonsense variable set.
var ErrNonObjectJSON = errors.New("template variables must be a JSON object or key: value lines")

// Vars is a string-to-string mapping that remembers first-insertion
// order. Overwriting a key keeps its original position.
type Vars struct {
	keys   []string
	values map[string]string
}

// NewVars returns an empty variable set.
func NewVars() *Vars {
	return &Vars{values: make(map[string]string)}
}

// VarsFromMap builds a variable set from a plain map. Iteration order
// of the input map decides insertion order, so use it only where order
// does not matter.
func VarsFromMap(m map[string]string) *Vars {
	v := NewVars()
	for k, val := range m {
		v.Set(k, val)
	}
	return v
}

// Set inserts or overwrites a key.
func (v *Vars) Set(key, value string) {
	if _, exists := v.values[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

// Get returns the value for key and whether it is present.
func (v *Vars) Get(key string) (string, bool) {
	if v == nil {
		return "", false
	}
	val, ok := v.values[key]
	return val, ok
}

// Has reports whether key is present.
func (v *Vars) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Len returns the number of keys.
func (v *Vars) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the keys in insertion order.
func (v *Vars) Keys() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Map returns a plain-map copy.
func (v *Vars) Map() map[string]string {
	if v == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Clone deep-copies the variable set. Clone of nil is nil.
func (v *Vars) Clone() *Vars {
	if v == nil {
		return nil
	}
	out := NewVars()
	for _, k := range v.keys {
		out.Set(k, v.values[k])
	}
	return out
}

// Merge returns a copy of v with every key of other set on top.
func (v *Vars) Merge(other *Vars) *Vars {
	out := v.Clone()
	if out == nil {
		out = NewVars()
	}
	if other != nil {
		for _, k := range other.keys {
			out.Set(k, other.values[k])
		}
	}
	return out
}

// MarshalJSON renders the mapping as a JSON object in insertion order.
func (v *Vars) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (v *Vars) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if string(trimmed) == "null" {
		*v = *NewVars()
		return nil
	}
	decoded, err := decodeOrderedObject(string(trimmed))
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}

// DecodeVars parses template-variable text. A JSON object is accepted
// first; otherwise each non-blank line is split on the first ':' (or,
// failing that, the first '='), and a separator-free line becomes a
// key with an empty value. Later duplicate keys overwrite earlier
// ones. Blank input yields an empty set.
func DecodeVars(text string) (*Vars, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewVars(), nil
	}

	if json.Valid([]byte(trimmed)) {
		if !strings.HasPrefix(trimmed, "{") {
			return nil, ErrNonObjectJSON
		}
		return decodeOrderedObject(trimmed)
	}

	vars := NewVars()
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// ':' wins over '=' even when '=' appears first.
		if i := strings.Index(line, ":"); i >= 0 {
			vars.Set(strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
			continue
		}
		if i := strings.Index(line, "="); i >= 0 {
			vars.Set(strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
			continue
		}
		vars.Set(line, "")
	}
	return vars, nil
}

// EncodeVars renders a variable set as "key: value" lines in insertion
// order. An empty or nil set encodes to "".
func EncodeVars(vars *Vars) string {
	if vars.Len() == 0 {
		return ""
	}
	lines := make([]string, 0, vars.Len())
	for _, k := range vars.Keys() {
		val, _ := vars.Get(k)
		lines = append(lines, fmt.Sprintf("%s: %s", k, val))
	}
	return strings.Join(lines, "\n")
}

// RenderTemplate substitutes {{name}} placeholders (whitespace inside
// the braces allowed) with values from vars. Placeholders without a
// value are left untouched.
func RenderTemplate(text string, vars *Vars) string {
	if vars.Len() == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if val, ok := vars.Get(name); ok {
			return val
		}
		return match
	})
}

// decodeOrderedObject walks a JSON object token by token so key order
// survives. Non-string values keep their literal JSON text; null maps
// to the empty string.
func decodeOrderedObject(text string) (*Vars, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNonObjectJSON
	}

	vars := NewVars()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		vars.Set(key, rawToString(raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return vars, nil
}

func rawToString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
