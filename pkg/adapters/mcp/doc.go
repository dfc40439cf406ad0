// Package mcp exposes a compiled graph over the Model Context Protocol:
// invoke_graph, get_thread_state and get_graph tools, every registry tool, and
// the stategraph://graph resource.
package mcp
