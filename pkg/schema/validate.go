package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"a": Int(), "b": Int(), "note": Optional(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Every non-optional field must be present. Fields not in the schema are ignored.
// Returns an error with all validation failures found, ordered by field name.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error
	for _, fieldName := range schema.Fields() {
		fieldType := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			if IsOptional(fieldType) {
				continue
			}
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Fields returns the field names in sorted order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for k := range s {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// JSONSchema renders the schema as a JSON Schema object, the form tool
// parameters are declared to models and MCP clients.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s))
	required := []string{}
	for _, field := range s.Fields() {
		properties[field] = s[field].JSONSchema()
		if !IsOptional(s[field]) {
			required = append(required, field)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
