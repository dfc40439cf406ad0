package domain

import (
	"maps"
	"sort"
)

// State is the shared state container that flows through the graph.
// It is an open mapping from field name to value. Each in-flight execution owns
// its own State; nodes never mutate it directly, they return partial updates
// which the executor merges through a Schema.
type State map[string]any

// Clone returns a deep copy of the state.
// Slices, maps and messages are copied so the clone never aliases the original.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Get returns the value of a field and whether it is present.
func (s State) Get(field string) (any, bool) {
	v, ok := s[field]
	return v, ok
}

// String returns the field as a string, or "" if absent or of another type.
func (s State) String(field string) string {
	v, _ := s[field].(string)
	return v
}

// Messages returns the message history stored under field.
// It returns nil if the field is absent or does not hold messages.
func (s State) Messages(field string) []Message {
	switch v := s[field].(type) {
	case []Message:
		return v
	case Message:
		return []Message{v}
	case *Message:
		if v != nil {
			return []Message{*v}
		}
	}
	return nil
}

// Keys returns the field names in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case State:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case map[string]string:
		return maps.Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case Message:
		return t.Clone()
	case *Message:
		if t == nil {
			return t
		}
		c := t.Clone()
		return &c
	case []Message:
		out := make([]Message, len(t))
		for i, m := range t {
			out[i] = m.Clone()
		}
		return out
	case ToolCall:
		return t.Clone()
	case []ToolCall:
		out := make([]ToolCall, len(t))
		for i, c := range t {
			out[i] = c.Clone()
		}
		return out
	default:
		return v
	}
}
