// Package redis provides a Redis-backed checkpointer and distributed locker.
package redis
