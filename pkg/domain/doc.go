/*
Package domain contains the core model of the graph engine.

It defines the state container and its merge policies, the node and edge types
a graph is built from, checkpoints, conversation messages and tool calls. This
package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - State: the open field map that flows through a graph.
  - Schema: per-field reducers deciding how a partial update merges.
  - Node, Edge, Router: the building blocks of a Graph.
  - Checkpoint: a thread-keyed snapshot saved after every step.
  - Message, ToolCall: the conversation model used by the tool-use pattern.
*/
package domain
