package cli

import (
	"context"
	"sort"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/session"
)

// ListThreads summarizes every stored thread, most recently updated first.
func ListThreads(ctx context.Context, sessions *session.Manager) ([]domain.ThreadInfo, error) {
	ids, err := sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ThreadInfo, 0, len(ids))
	for _, id := range ids {
		cp, err := sessions.GetState(ctx, id)
		if IsNotFound(err) {
			// deleted since List
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, domain.ThreadInfo{
			ThreadID:  id,
			Step:      cp.Step,
			Node:      cp.Node,
			UpdatedAt: cp.CreatedAt,
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].ThreadID < infos[j].ThreadID
		}
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}
