// Package memory provides the default in-memory checkpointer.
// State does not survive the process.
package memory
