// Package cli wires the configuration file into a running engine: the
// checkpoint store, the chat model, the tool registry and the graph, either
// the built-in agent or a definition file. The cobra commands under
// cmd/stategraph are thin shells over it.
package cli
