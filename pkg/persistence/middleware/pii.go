package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

// Mask replaces the values of masked fields.
const Mask = "***"

type piiMiddleware struct {
	ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, before saving, the values of
// state fields (and nested map keys) whose name matches one of the patterns.
// Masking is one-way: loads return the masked values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{CheckpointStore: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, cp domain.Checkpoint) error {
	masked := cp.Clone()
	maskMap(masked.State, m.patterns)
	return m.CheckpointStore.Save(ctx, masked)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchAny(k, patterns) {
			m[k] = Mask
			continue
		}
		switch sub := v.(type) {
		case map[string]any:
			maskMap(sub, patterns)
		case domain.State:
			maskMap(sub, patterns)
		}
	}
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
