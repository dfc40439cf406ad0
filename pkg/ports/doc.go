/*
Package ports defines the driven ports (interfaces) of the graph engine.

These interfaces decouple the executor from external implementations, allowing
the engine to work with various checkpoint backends, lock providers and models.

# Key Interfaces

  - Checkpointer: loads and saves thread checkpoints.
  - CheckpointStore: a Checkpointer with history, listing and deletion.
  - DistributedLocker: serializes invocations of a thread across processes.
  - ChatModel: the external model collaborator of the tool-use pattern.
  - Invoker: the entry point adapters call into.
*/
package ports
