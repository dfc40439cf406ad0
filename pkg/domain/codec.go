package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// KindJSON tags values with no registered kind. They decode generically
// (objects as map[string]any, numbers as float64).
const KindJSON = "json"

// Structural kinds. Their elements carry their own tags, so values nested in
// maps, lists, tool-call arguments and sub-states keep their Go types.
const (
	kindMap  = "map"
	kindList = "list"
)

// Codec serializes State values with a per-value type tag so that registered
// Go types survive a round trip through a durable store.
type Codec struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
	kinds map[reflect.Type]string
}

// NewCodec returns a codec with the built-in kinds registered.
func NewCodec() *Codec {
	c := &Codec{
		types: make(map[string]reflect.Type),
		kinds: make(map[reflect.Type]string),
	}
	Register[string](c, "string")
	Register[bool](c, "bool")
	Register[int](c, "int")
	Register[int64](c, "int64")
	Register[float64](c, "float64")
	Register[[]string](c, "strings")
	Register[[]int](c, "ints")
	Register[Message](c, "message")
	Register[[]Message](c, "messages")
	Register[ToolCall](c, "tool_call")
	Register[[]ToolCall](c, "tool_calls")
	Register[State](c, "state")
	return c
}

// Register binds kind to the Go type T. Re-registering a kind replaces it.
// The structural kinds "map" and "list" are reserved.
func Register[T any](c *Codec, kind string) {
	if kind == kindMap || kind == kindList {
		panic(fmt.Sprintf("codec: kind %q is reserved", kind))
	}
	t := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.types[kind]; ok {
		delete(c.kinds, old)
	}
	c.types[kind] = t
	c.kinds[t] = kind
}

type envelope struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// toolCallRecord and messageRecord shadow the free-form Args map with tagged values.
type toolCallRecord struct {
	ToolCall
	Args map[string]envelope `json:"args,omitempty"`
}

type messageRecord struct {
	Message
	ToolCalls []toolCallRecord `json:"tool_calls,omitempty"`
}

// Encode serializes a state.
func (c *Codec) Encode(s State) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields, err := c.encodeFields(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (c *Codec) encodeFields(s State) (map[string]envelope, error) {
	out := make(map[string]envelope, len(s))
	for _, field := range s.Keys() {
		env, err := c.encodeValue(s[field])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", field, err)
		}
		out[field] = env
	}
	return out, nil
}

func (c *Codec) encodeValue(v any) (envelope, error) {
	var (
		kind    = KindJSON
		payload = v
	)
	if v != nil {
		if k, ok := c.kinds[reflect.TypeOf(v)]; ok {
			kind = k
		}
	}

	var err error
	switch t := v.(type) {
	case State:
		if t != nil {
			payload, err = c.encodeFields(t)
		}
	case map[string]any:
		if kind == KindJSON {
			kind = kindMap
			payload, err = c.encodeMap(t)
		}
	case []any:
		if kind == KindJSON {
			kind = kindList
			payload, err = c.encodeList(t)
		}
	case Message:
		payload, err = c.encodeMessage(t)
	case []Message:
		var records []messageRecord
		if t != nil {
			records = make([]messageRecord, len(t))
		}
		for i, m := range t {
			if records[i], err = c.encodeMessage(m); err != nil {
				break
			}
		}
		payload = records
	case ToolCall:
		payload, err = c.encodeToolCall(t)
	case []ToolCall:
		var records []toolCallRecord
		if t != nil {
			records = make([]toolCallRecord, len(t))
		}
		for i, call := range t {
			if records[i], err = c.encodeToolCall(call); err != nil {
				break
			}
		}
		payload = records
	}
	if err != nil {
		return envelope{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, err
	}
	return envelope{Kind: kind, Value: raw}, nil
}

func (c *Codec) encodeMap(m map[string]any) (map[string]envelope, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]envelope, len(m))
	for k, v := range m {
		env, err := c.encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = env
	}
	return out, nil
}

func (c *Codec) encodeList(l []any) ([]envelope, error) {
	if l == nil {
		return nil, nil
	}
	out := make([]envelope, len(l))
	for i, v := range l {
		env, err := c.encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = env
	}
	return out, nil
}

func (c *Codec) encodeMessage(m Message) (messageRecord, error) {
	rec := messageRecord{Message: m}
	if len(m.ToolCalls) > 0 {
		rec.ToolCalls = make([]toolCallRecord, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			r, err := c.encodeToolCall(call)
			if err != nil {
				return messageRecord{}, err
			}
			rec.ToolCalls[i] = r
		}
	}
	return rec, nil
}

func (c *Codec) encodeToolCall(call ToolCall) (toolCallRecord, error) {
	rec := toolCallRecord{ToolCall: call}
	if call.Args != nil {
		args, err := c.encodeMap(call.Args)
		if err != nil {
			return toolCallRecord{}, fmt.Errorf("tool call %q args: %w", call.ID, err)
		}
		rec.Args = args
	}
	return rec, nil
}

// Decode restores a state produced by Encode.
func (c *Codec) Decode(data []byte) (State, error) {
	var fields map[string]envelope
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decodeFields(fields)
}

func (c *Codec) decodeFields(fields map[string]envelope) (State, error) {
	s := make(State, len(fields))
	for field, env := range fields {
		v, err := c.decodeValue(env)
		if err != nil {
			return nil, fmt.Errorf("decode field %q: %w", field, err)
		}
		s[field] = v
	}
	return s, nil
}

func (c *Codec) decodeValue(env envelope) (any, error) {
	switch env.Kind {
	case KindJSON:
		var v any
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return v, nil
	case kindMap:
		var fields map[string]envelope
		if err := json.Unmarshal(env.Value, &fields); err != nil {
			return nil, err
		}
		return c.decodeMap(fields)
	case kindList:
		var items []envelope
		if err := json.Unmarshal(env.Value, &items); err != nil {
			return nil, err
		}
		if items == nil {
			return []any(nil), nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := c.decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	t, ok := c.types[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", env.Kind)
	}

	var (
		v   any
		err error
	)
	switch t {
	case reflect.TypeFor[State]():
		var fields map[string]envelope
		if err = json.Unmarshal(env.Value, &fields); err == nil {
			v = State(nil)
			if fields != nil {
				v, err = c.decodeFields(fields)
			}
		}
	case reflect.TypeFor[Message]():
		var rec messageRecord
		if err = json.Unmarshal(env.Value, &rec); err == nil {
			v, err = c.decodeMessage(rec)
		}
	case reflect.TypeFor[[]Message]():
		var recs []messageRecord
		if err = json.Unmarshal(env.Value, &recs); err == nil && recs != nil {
			msgs := make([]Message, len(recs))
			for i := range recs {
				if msgs[i], err = c.decodeMessage(recs[i]); err != nil {
					break
				}
			}
			v = msgs
		} else if err == nil {
			v = []Message(nil)
		}
	case reflect.TypeFor[ToolCall]():
		var rec toolCallRecord
		if err = json.Unmarshal(env.Value, &rec); err == nil {
			v, err = c.decodeToolCall(rec)
		}
	case reflect.TypeFor[[]ToolCall]():
		var recs []toolCallRecord
		if err = json.Unmarshal(env.Value, &recs); err == nil && recs != nil {
			calls := make([]ToolCall, len(recs))
			for i := range recs {
				if calls[i], err = c.decodeToolCall(recs[i]); err != nil {
					break
				}
			}
			v = calls
		} else if err == nil {
			v = []ToolCall(nil)
		}
	default:
		ptr := reflect.New(t)
		if err = json.Unmarshal(env.Value, ptr.Interface()); err == nil {
			v = ptr.Elem().Interface()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("as %s: %w", env.Kind, err)
	}
	return v, nil
}

func (c *Codec) decodeMap(fields map[string]envelope) (map[string]any, error) {
	if fields == nil {
		return nil, nil
	}
	out := make(map[string]any, len(fields))
	for k, env := range fields {
		v, err := c.decodeValue(env)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (c *Codec) decodeMessage(rec messageRecord) (Message, error) {
	m := rec.Message
	m.ToolCalls = nil
	if rec.ToolCalls != nil {
		m.ToolCalls = make([]ToolCall, len(rec.ToolCalls))
		for i := range rec.ToolCalls {
			call, err := c.decodeToolCall(rec.ToolCalls[i])
			if err != nil {
				return Message{}, err
			}
			m.ToolCalls[i] = call
		}
	}
	return m, nil
}

func (c *Codec) decodeToolCall(rec toolCallRecord) (ToolCall, error) {
	call := rec.ToolCall
	args, err := c.decodeMap(rec.Args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("tool call %q args: %w", call.ID, err)
	}
	call.Args = args
	return call, nil
}

type checkpointRecord struct {
	ID        string              `json:"id"`
	ThreadID  string              `json:"thread_id"`
	Step      int                 `json:"step"`
	Node      string              `json:"node"`
	Writes    []string            `json:"writes,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	State     map[string]envelope `json:"state"`
}

// MarshalCheckpoint serializes a checkpoint together with its typed state.
func (c *Codec) MarshalCheckpoint(cp Checkpoint) ([]byte, error) {
	c.mu.RLock()
	fields, err := c.encodeFields(cp.State)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return json.Marshal(checkpointRecord{
		ID:        cp.ID,
		ThreadID:  cp.ThreadID,
		Step:      cp.Step,
		Node:      cp.Node,
		Writes:    cp.Writes,
		CreatedAt: cp.CreatedAt,
		State:     fields,
	})
}

// UnmarshalCheckpoint restores a checkpoint produced by MarshalCheckpoint.
func (c *Codec) UnmarshalCheckpoint(data []byte) (Checkpoint, error) {
	var rec checkpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	c.mu.RLock()
	state, err := c.decodeFields(rec.State)
	c.mu.RUnlock()
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{
		ID:        rec.ID,
		ThreadID:  rec.ThreadID,
		Step:      rec.Step,
		Node:      rec.Node,
		Writes:    rec.Writes,
		CreatedAt: rec.CreatedAt,
		State:     state,
	}, nil
}
