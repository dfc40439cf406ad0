package domain

import "time"

// Checkpoint is a durable snapshot of a thread's state after a step.
type Checkpoint struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	// Step is monotonic per thread, counting node executions across invocations.
	Step int `json:"step"`
	// Node is the node whose completion produced this snapshot.
	Node      string    `json:"node"`
	State     State     `json:"state"`
	Writes    []string  `json:"writes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy with its own state.
func (c Checkpoint) Clone() Checkpoint {
	out := c
	out.State = c.State.Clone()
	if c.Writes != nil {
		out.Writes = append([]string(nil), c.Writes...)
	}
	return out
}

// ThreadInfo summarizes a stored thread.
type ThreadInfo struct {
	ThreadID  string    `json:"thread_id"`
	Step      int       `json:"step"`
	Node      string    `json:"node"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunConfig parametrizes a single invocation.
type RunConfig struct {
	// ThreadID keys checkpoint persistence. Required when a checkpointer is attached.
	ThreadID string `json:"thread_id,omitempty"`
	// MaxSteps bounds node executions for this invocation. Zero uses the engine default,
	// which is unbounded unless set with WithMaxSteps.
	MaxSteps int `json:"max_steps,omitempty"`
}
