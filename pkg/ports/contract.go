package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointerContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointerContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	threadID := "contract-test-thread-" + time.Now().Format("20060102150405")

	checkpoint := func(thread string, step int, state domain.State) domain.Checkpoint {
		return domain.Checkpoint{
			ID:        fmt.Sprintf("%s-%d", thread, step),
			ThreadID:  thread,
			Step:      step,
			Node:      "node",
			State:     state,
			Writes:    state.Keys(),
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := threadID + "-roundtrip"
		defer func() { _ = store.Delete(ctx, id) }()

		state := domain.State{
			"foo":     "bar",
			"count":   42,
			"scratch": domain.State{"count": 2},
			domain.MessagesKey: []domain.Message{
				domain.HumanMessage("hi"),
				domain.AssistantMessage("", domain.ToolCall{ID: "c1", Name: "add", Args: map[string]any{"a": 1.0}}),
				domain.AssistantMessage("", domain.ToolCall{ID: "c2", Name: "multiply", Args: map[string]any{"a": 3, "b": 4}}),
			},
		}
		require.NoError(t, store.Save(ctx, checkpoint(id, 1, state)), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, id, loaded.ThreadID)
		assert.Equal(t, 1, loaded.Step)
		assert.Equal(t, "node", loaded.Node)
		assert.Equal(t, state, loaded.State, "registered kinds must round trip exactly")
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		id := threadID + "-copy"
		defer func() { _ = store.Delete(ctx, id) }()

		require.NoError(t, store.Save(ctx, checkpoint(id, 1, domain.State{"tags": []string{"a"}})))

		first, err := store.Load(ctx, id)
		require.NoError(t, err)
		first.State["tags"].([]string)[0] = "mutated"

		second, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, second.State["tags"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Conflict on stale step", func(t *testing.T) {
		id := threadID + "-conflict"
		defer func() { _ = store.Delete(ctx, id) }()

		require.NoError(t, store.Save(ctx, checkpoint(id, 2, domain.State{"v": "two"})))
		err := store.Save(ctx, checkpoint(id, 2, domain.State{"v": "again"}))
		assert.ErrorIs(t, err, domain.ErrCheckpointConflict)
		err = store.Save(ctx, checkpoint(id, 1, domain.State{"v": "older"}))
		assert.ErrorIs(t, err, domain.ErrCheckpointConflict)

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "two", loaded.State["v"], "a rejected save must not change the thread")
	})

	t.Run("History", func(t *testing.T) {
		id := threadID + "-history"
		defer func() { _ = store.Delete(ctx, id) }()

		for step := 1; step <= 3; step++ {
			require.NoError(t, store.Save(ctx, checkpoint(id, step, domain.State{"step": step})))
		}

		history, err := store.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i, cp := range history {
			assert.Equal(t, i+1, cp.Step, "history must be ordered oldest first")
		}

		latest, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, latest.Step)

		_, err = store.History(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := threadID + "-delete"
		require.NoError(t, store.Save(ctx, checkpoint(id, 1, domain.State{})))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound, "Load after Delete should return ErrThreadNotFound")

		// A deleted thread starts over.
		require.NoError(t, store.Save(ctx, checkpoint(id, 1, domain.State{})))
		require.NoError(t, store.Delete(ctx, id))
		require.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		require.NoError(t, store.Save(ctx, checkpoint(id1, 1, domain.State{})))
		require.NoError(t, store.Save(ctx, checkpoint(id2, 1, domain.State{})))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})

	t.Run("Concurrent saves on distinct threads", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers*3)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				id := fmt.Sprintf("%s-concurrent-%d", threadID, w)
				for step := 1; step <= 3; step++ {
					if err := store.Save(ctx, checkpoint(id, step, domain.State{"w": w})); err != nil {
						errs <- err
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		for w := 0; w < workers; w++ {
			id := fmt.Sprintf("%s-concurrent-%d", threadID, w)
			cp, err := store.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 3, cp.Step)
			_ = store.Delete(ctx, id)
		}
	})

	t.Run("Concurrent saves on one thread never regress", func(t *testing.T) {
		id := threadID + "-race"
		defer func() { _ = store.Delete(ctx, id) }()

		const writers = 6
		var wg sync.WaitGroup
		for w := 1; w <= writers; w++ {
			wg.Add(1)
			go func(step int) {
				defer wg.Done()
				err := store.Save(ctx, checkpoint(id, step, domain.State{"step": step}))
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrCheckpointConflict)
				}
			}(w)
		}
		wg.Wait()

		history, err := store.History(ctx, id)
		require.NoError(t, err)
		for i := 1; i < len(history); i++ {
			assert.Greater(t, history[i].Step, history[i-1].Step, "stored steps must be strictly increasing")
		}
	})
}
