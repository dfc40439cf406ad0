package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name         string
		old          State
		new          State
		wantChanged  map[string]any
		wantAppended []Message
	}{
		{
			name:        "Initial Load (Old is Nil)",
			old:         nil,
			new:         State{"a": 1},
			wantChanged: map[string]any{"a": 1},
		},
		{
			name: "No Changes",
			old:  State{"a": 1, "mood": "happy"},
			new:  State{"a": 1, "mood": "happy"},
		},
		{
			name:        "Field Added & Modified",
			old:         State{"a": 1, "b": "old"},
			new:         State{"a": 1, "b": "new", "c": true},
			wantChanged: map[string]any{"b": "new", "c": true},
		},
		{
			name:         "History Append",
			old:          State{MessagesKey: []Message{HumanMessage("hi")}},
			new:          State{MessagesKey: []Message{HumanMessage("hi"), AssistantMessage("hello")}},
			wantAppended: []Message{AssistantMessage("hello")},
		},
		{
			name: "History Rewrite",
			old:  State{MessagesKey: []Message{{ID: "1", Role: RoleHuman, Content: "a"}}},
			new:  State{MessagesKey: []Message{{ID: "1", Role: RoleHuman, Content: "b"}}},
			wantChanged: map[string]any{
				MessagesKey: []Message{{ID: "1", Role: RoleHuman, Content: "b"}},
			},
		},
		{
			name:        "Field Deletion",
			old:         State{"a": 1, "b": 2},
			new:         State{"a": 1},
			wantChanged: map[string]any{"b": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got.Changed, tt.wantChanged) {
				t.Errorf("Diff().Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(got.Appended, tt.wantAppended) {
				t.Errorf("Diff().Appended = %v, want %v", got.Appended, tt.wantAppended)
			}
			wantEmpty := len(tt.wantChanged) == 0 && len(tt.wantAppended) == 0
			if got.IsEmpty() != wantEmpty {
				t.Errorf("Diff().IsEmpty() = %v, want %v", got.IsEmpty(), wantEmpty)
			}
		})
	}
}

func TestDiffFields(t *testing.T) {
	old := State{"count": 1, MessagesKey: []Message{HumanMessage("hi")}}
	next := State{"count": 2, "mood": "sad", MessagesKey: []Message{HumanMessage("hi"), AssistantMessage("ok")}}

	got := Diff(old, next).Fields()
	want := []string{"count", MessagesKey, "mood"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Changes Omitted", func(t *testing.T) {
		diff := Diff(State{"a": 1}, State{"a": 1})

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"changed"`) {
			t.Errorf("JSON should not contain 'changed' when empty, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		diff := Diff(State{"a": 1, "b": 2}, State{"a": 1})

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})
}
