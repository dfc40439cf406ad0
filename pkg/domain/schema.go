package domain

import (
	"fmt"
	"reflect"
)

// MessagesKey is the conventional field holding the message history.
const MessagesKey = "messages"

// Reducer merges a partial update for one field into its current value.
// current is nil when the field is not yet set.
type Reducer func(current, update any) (any, error)

// Schema maps field names to their merge policy.
// Fields without an entry are overwritten by updates.
type Schema map[string]Reducer

// MessagesSchema returns a schema whose "messages" field accumulates with AddMessages.
func MessagesSchema() Schema {
	return Schema{MessagesKey: AddMessages}
}

// With returns a copy of the schema with an extra reducer.
func (s Schema) With(field string, r Reducer) Schema {
	out := s.Clone()
	out[field] = r
	return out
}

// Clone returns a shallow copy of the schema.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Reducer returns the merge policy for field (Overwrite when unset).
func (s Schema) Reducer(field string) Reducer {
	if r, ok := s[field]; ok && r != nil {
		return r
	}
	return Overwrite
}

// Apply merges update into state field by field, in place.
// On error the state may be partially updated; callers that need atomicity
// apply onto a clone.
func (s Schema) Apply(state State, update State) error {
	for _, field := range update.Keys() {
		merged, err := s.Reducer(field)(state[field], update[field])
		if err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrInvalidUpdate, field, err)
		}
		state[field] = merged
	}
	return nil
}

// Overwrite replaces the current value with the update.
func Overwrite(_ any, update any) (any, error) {
	return cloneValue(update), nil
}

// Append concatenates slices. The update may be a single element or a slice
// whose elements are assignable to the current slice's element type.
// The result is always a fresh slice; the current value is never modified.
func Append(current, update any) (any, error) {
	if update == nil {
		return cloneValue(current), nil
	}
	uv := reflect.ValueOf(update)

	if current == nil {
		if uv.Kind() == reflect.Slice {
			out := reflect.MakeSlice(uv.Type(), 0, uv.Len())
			return reflect.AppendSlice(out, uv).Interface(), nil
		}
		out := reflect.MakeSlice(reflect.SliceOf(uv.Type()), 0, 1)
		return reflect.Append(out, uv).Interface(), nil
	}

	cv := reflect.ValueOf(current)
	if cv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("append: current value is %T, not a slice", current)
	}
	elem := cv.Type().Elem()

	out := reflect.MakeSlice(cv.Type(), 0, cv.Len()+1)
	out = reflect.AppendSlice(out, cv)

	if uv.Kind() == reflect.Slice && uv.Type() != elem {
		for i := 0; i < uv.Len(); i++ {
			item := uv.Index(i)
			if item.Kind() == reflect.Interface && !item.IsNil() {
				item = item.Elem()
			}
			if !item.Type().AssignableTo(elem) {
				return nil, fmt.Errorf("append: cannot append %s to %s", item.Type(), cv.Type())
			}
			out = reflect.Append(out, item)
		}
		return out.Interface(), nil
	}

	if !uv.Type().AssignableTo(elem) {
		return nil, fmt.Errorf("append: cannot append %T to %s", update, cv.Type())
	}
	return reflect.Append(out, uv).Interface(), nil
}

// AddMessages merges message updates into a history.
// Updates may be a Message, *Message or []Message. A message whose ID matches
// an existing entry replaces that entry; anything else is appended. The
// history never shrinks.
func AddMessages(current, update any) (any, error) {
	var existing []Message
	switch v := current.(type) {
	case nil:
	case []Message:
		existing = v
	case Message:
		existing = []Message{v}
	default:
		return nil, fmt.Errorf("add messages: current value is %T", current)
	}

	var incoming []Message
	switch v := update.(type) {
	case nil:
	case Message:
		incoming = []Message{v}
	case *Message:
		if v != nil {
			incoming = []Message{*v}
		}
	case []Message:
		incoming = v
	default:
		return nil, fmt.Errorf("add messages: unsupported update %T", update)
	}

	out := make([]Message, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))
	for _, m := range existing {
		if m.ID != "" {
			index[m.ID] = len(out)
		}
		out = append(out, m.Clone())
	}
	for _, m := range incoming {
		if m.ID != "" {
			if pos, ok := index[m.ID]; ok {
				out[pos] = m.Clone()
				continue
			}
			index[m.ID] = len(out)
		}
		out = append(out, m.Clone())
	}
	return out, nil
}
