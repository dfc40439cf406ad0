package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stategraph/pkg/domain"
)

func TestTypes_Validate(t *testing.T) {
	tests := []struct {
		typ     Type
		value   any
		wantErr bool
	}{
		{String(), "hello", false},
		{String(), 42, true},
		{Int(), 42, false},
		{Int(), int64(42), false},
		{Int(), float64(42), false}, // whole number from JSON
		{Int(), 42.5, true},
		{Int(), "42", true},
		{Float(), 3.14, false},
		{Float(), 3, false},
		{Float(), "3.14", true},
		{Bool(), true, false},
		{Bool(), "true", true},
		{Slice(String()), []string{"a"}, false},
		{Slice(String()), []any{"a", 1}, true},
		{Slice(Int()), "not a slice", true},
		{Messages(), domain.HumanMessage("hi"), false},
		{Messages(), []domain.Message{}, false},
		{Messages(), "hi", true},
		{Optional(Int()), 1, false},
		{Optional(Int()), "x", true},
	}

	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]string{
		"string":    "string",
		"int":       "int",
		"[float]":   "[float]",
		"[[bool]]":  "[[bool]]",
		"int?":      "int?",
		"[string]?": "[string]?",
		"messages":  "messages",
	}
	for in, want := range tests {
		typ, err := ParseType(in)
		if err != nil {
			t.Errorf("ParseType(%q) error = %v", in, err)
			continue
		}
		if typ.Name() != want {
			t.Errorf("ParseType(%q).Name() = %q, want %q", in, typ.Name(), want)
		}
	}

	if _, err := ParseType("complex"); err == nil {
		t.Error("ParseType(complex) should fail")
	}
}

func TestValidate(t *testing.T) {
	s := Schema{
		"a":    Int(),
		"b":    Int(),
		"note": Optional(String()),
	}

	if err := Validate(s, map[string]any{"a": 3, "b": 4.0}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	err := Validate(s, map[string]any{"a": "three", "note": 7})
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors (a type, b missing, note type), got %d: %v", len(errs), err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Key != "a" {
		t.Errorf("first error should be for field a, got %v", ve)
	}
	if v := errs[1].(*ValidationError); v.Key != "b" || v.Reason != "required" {
		t.Errorf("second error = %+v", v)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]any{"anything": 1}); err != nil {
		t.Errorf("empty schema should accept anything, got %v", err)
	}
}

func TestSchema_JSONSchema(t *testing.T) {
	s := Schema{"a": Int(), "b": Float(), "tags": Optional(Slice(String()))}
	got := s.JSONSchema()

	if got["type"] != "object" {
		t.Errorf("type = %v", got["type"])
	}
	required := got["required"].([]string)
	if len(required) != 2 || required[0] != "a" || required[1] != "b" {
		t.Errorf("required = %v", required)
	}
	props := got["properties"].(map[string]any)
	if props["a"].(map[string]any)["type"] != "integer" {
		t.Errorf("a = %v", props["a"])
	}
	if props["tags"].(map[string]any)["items"].(map[string]any)["type"] != "string" {
		t.Errorf("tags = %v", props["tags"])
	}
}

func TestSchema_Serialization(t *testing.T) {
	var fromYAML struct {
		Args Schema `yaml:"args"`
	}
	doc := "args:\n  a: int\n  note: string?\n"
	if err := yaml.Unmarshal([]byte(doc), &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if fromYAML.Args["a"].Name() != "int" || !IsOptional(fromYAML.Args["note"]) {
		t.Errorf("unexpected schema: %v", fromYAML.Args)
	}

	data, err := json.Marshal(fromYAML.Args)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var back Schema
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json back: %v", err)
	}
	if back["note"].Name() != "string?" {
		t.Errorf("round trip lost optional marker: %v", back["note"].Name())
	}

	if err := yaml.Unmarshal([]byte("args:\n  a: quaternion\n"), &fromYAML); err == nil {
		t.Error("unknown type should fail to decode")
	}
}
