// Package schema declares and validates the shape of loosely typed maps:
// tool-call arguments and graph input.
//
// A Schema maps field names to types. Built-in types cover strings, integers,
// floats, booleans, message histories and slices of any of them; fields may be
// marked optional. The same schema validates data and renders the JSON Schema
// object used to declare tool parameters to a model.
//
//	args := schema.Schema{
//	    "a": schema.Int(),
//	    "b": schema.Int(),
//	}
//
//	if err := schema.Validate(args, call.Args); err != nil {
//	    // Handle validation errors
//	}
//
//	params := args.JSONSchema() // {"type":"object","properties":{...},"required":["a","b"]}
//
// Schemas can also be written as type strings, which is how YAML graph
// definitions declare them:
//
//	schema.ParseTypeMap(map[string]string{"a": "int", "note": "string?", "tags": "[string]"})
package schema
