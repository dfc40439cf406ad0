package memory_test

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunCheckpointerContract(t, memory.NewStore())
}
