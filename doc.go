/*
Package stategraph compiles and runs graphs of steps that share a state.

A computation is described as a directed graph of named nodes. Each node reads
the shared state and returns a partial update; updates are merged field by
field according to the graph's reducers (overwrite by default, append for
accumulating fields such as a message history). Edges are unconditional or
decided at runtime by a router, and cycles are allowed, which is what the
tool-use pattern (assistant → tools → assistant) relies on.

# Concept

The engine is split along Hexagonal Architecture lines. The pure model lives
in pkg/domain, driven ports (checkpointers, locks, chat models) in pkg/ports,
and concrete adapters (memory, file, Redis, OpenAI-compatible HTTP, chi, MCP)
under pkg/adapters. This package ties them together.

# Key Features

  - Build-time validation: duplicate or unknown nodes, a second route from the
    same node, unreachable nodes and an unreachable END are rejected by Compile.
  - Reducers: per-field merge policies, including message-history semantics.
  - Checkpoints: with a checkpointer attached, state is saved after every node
    and invocations on the same thread resume from it.
  - Bounded runs: a step limit guards against cycles that never reach END.
  - Observability: lifecycle hooks and middleware (logging, OpenTelemetry).

# Usage

	b := dsl.New()
	_ = b.AddNode("node_1", step1)
	_ = b.AddNode("node_2", step2)
	_ = b.AddNode("node_3", step3)
	_ = b.AddEdge(domain.START, "node_1")
	_ = b.AddConditionalEdges("node_1", decideMood, "node_2", "node_3")
	_ = b.AddEdge("node_2", domain.END)
	_ = b.AddEdge("node_3", domain.END)

	eng, err := stategraph.Compile(b)
	if err != nil {
		log.Fatal(err)
	}

	out, err := eng.Invoke(ctx, domain.State{"graph_state": "Hi, this is Lance."}, domain.RunConfig{})

To keep memory across invocations, attach a checkpointer and pass a thread id:

	eng, _ := stategraph.Compile(b, stategraph.WithCheckpointer(memory.NewStore()))
	out, err := eng.Invoke(ctx, input, domain.RunConfig{ThreadID: "1"})
*/
package stategraph
