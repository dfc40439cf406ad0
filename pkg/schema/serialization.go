package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON serializes the schema as a map of field names to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	raw, err := s.typeMap()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []byte("null"), nil
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of field names to type strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: expected a map of field names to type strings: %w", err)
	}
	return s.fromTypeMap(raw)
}

// MarshalYAML serializes the schema as a map of field names to type strings.
func (s Schema) MarshalYAML() (any, error) {
	return s.typeMap()
}

// UnmarshalYAML lets graph definitions declare argument and input types inline:
//
//	args:
//	  a: int
//	  b: int
//	  note: string?
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("schema: line %d: expected a map of field names to type strings: %w", node.Line, err)
	}
	return s.fromTypeMap(raw)
}

func (s Schema) typeMap() (map[string]string, error) {
	if s == nil {
		return nil, nil
	}
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}

func (s *Schema) fromTypeMap(raw map[string]string) error {
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
