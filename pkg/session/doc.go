/*
Package session serializes graph invocations per thread.

Invocations of one thread read the latest checkpoint, run, and write new ones;
two of them interleaving would race on the checkpoint step. The Manager holds a
reference-counted mutex per thread and, for several processes sharing one
store, an optional distributed lock.
*/
package session
