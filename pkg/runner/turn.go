package runner

import (
	"context"
	"errors"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/session"
)

// TurnResult is the outcome of one invocation as seen by a chat client.
type TurnResult struct {
	ThreadID string
	State    domain.State
	// Messages holds the entries appended by this turn, excluding human input.
	Messages []domain.Message
}

// Turn invokes the graph once on threadID and extracts the messages it produced
// under field.
func Turn(ctx context.Context, sessions *session.Manager, threadID string, input domain.State, field string) (*TurnResult, error) {
	before := 0
	if threadID != "" {
		cp, err := sessions.GetState(ctx, threadID)
		switch {
		case err == nil:
			before = len(cp.State.Messages(field))
		case errors.Is(err, domain.ErrThreadNotFound), errors.Is(err, session.ErrNoStore):
		default:
			return nil, err
		}
	}

	out, err := sessions.Invoke(ctx, threadID, input)
	if err != nil {
		return nil, err
	}

	msgs := out.Messages(field)
	if before > len(msgs) {
		before = 0
	}
	var produced []domain.Message
	for _, m := range msgs[before:] {
		if m.Role != domain.RoleHuman {
			produced = append(produced, m)
		}
	}
	return &TurnResult{ThreadID: threadID, State: out, Messages: produced}, nil
}
