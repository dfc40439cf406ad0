// Package http exposes a compiled graph over a JSON HTTP API (chi router):
// invocation, thread inspection, topology and server-sent state diffs.
package http
