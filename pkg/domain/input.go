package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseInput decodes a JSON object into a State, for inputs coming from
// outside the process (CLI, HTTP, MCP).
// The "messages" field accepts a single message, a list of messages or a plain
// string (a human message). Integral numbers decode as int, others as float64.
func ParseInput(data []byte) (State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: input must be a JSON object: %w", ErrInvalidUpdate, err)
	}

	out := make(State, len(raw))
	for field, value := range raw {
		if field == MessagesKey {
			msgs, err := parseMessages(value)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidUpdate, field, err)
			}
			out[field] = msgs
			continue
		}
		v, err := parseValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidUpdate, field, err)
		}
		out[field] = v
	}
	return out, nil
}

func parseMessages(data json.RawMessage) ([]Message, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || string(trimmed) == "null":
		return nil, nil
	case trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		return []Message{HumanMessage(text)}, nil
	case trimmed[0] == '{':
		var m Message
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, err
		}
		return []Message{normalizeRole(m)}, nil
	default:
		var ms []Message
		if err := json.Unmarshal(trimmed, &ms); err != nil {
			return nil, err
		}
		for i := range ms {
			ms[i] = normalizeRole(ms[i])
		}
		return ms, nil
	}
}

// normalizeRole accepts the common "user" alias and defaults to human.
func normalizeRole(m Message) Message {
	switch strings.ToLower(string(m.Role)) {
	case "", "user":
		m.Role = RoleHuman
	case "ai":
		m.Role = RoleAssistant
	}
	return m
}

func parseValue(data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil && !strings.ContainsAny(t.String(), ".eE") {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}
