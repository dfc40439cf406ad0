// Package file provides a durable checkpointer backed by JSON files.
package file
