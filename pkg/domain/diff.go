package domain

import (
	"reflect"
	"sort"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// Changed contains only changed, added or deleted fields.
	// For deletions, the field is present with a nil value.
	Changed map[string]any `json:"changed,omitempty"`

	// Appended holds messages added to the history field, when that is the only change to it.
	Appended []Message `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState State) StateDiff {
	var diff StateDiff
	delta := make(map[string]any)

	for k, newVal := range newState {
		oldVal, exists := oldState[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range oldState {
		if _, exists := newState[k]; !exists {
			delta[k] = nil
		}
	}

	// Message histories only grow; report the tail instead of the full list.
	if _, ok := delta[MessagesKey]; ok {
		oldMsgs, newMsgs := oldState.Messages(MessagesKey), newState.Messages(MessagesKey)
		if len(newMsgs) > len(oldMsgs) && reflect.DeepEqual(oldMsgs, newMsgs[:len(oldMsgs)]) {
			diff.Appended = newMsgs[len(oldMsgs):]
			delete(delta, MessagesKey)
		}
	}

	// Optimization: Return nil if delta is empty so omitempty can remove the key
	if len(delta) > 0 {
		diff.Changed = delta
	}
	return diff
}

// Fields lists the names of the fields touched by the diff, sorted.
func (d StateDiff) Fields() []string {
	fields := make([]string, 0, len(d.Changed)+1)
	for k := range d.Changed {
		fields = append(fields, k)
	}
	if len(d.Appended) > 0 {
		fields = append(fields, MessagesKey)
	}
	sort.Strings(fields)
	return fields
}

// IsEmpty checks if the diff contains any actionable changes.
func (d StateDiff) IsEmpty() bool {
	return len(d.Changed) == 0 && len(d.Appended) == 0
}
