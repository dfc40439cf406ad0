// Package registry holds the tools a graph can call, keyed by name.
//
// Each tool carries a declaration (name, description, argument schema) that is
// passed to the model, and a function the tool node executes. Typed tools can be
// registered with RegisterFunc, which derives the schema from a struct and
// decodes arguments into it.
package registry
