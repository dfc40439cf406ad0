package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ParseInput turns a command-line input argument into a state update.
//
//	@path   reads the input from a file
//	-       reads the input from stdin
//	{...}   is decoded as a JSON state object
//	text    becomes a human message appended to field
//
// An empty argument yields an empty update.
func ParseInput(arg string, stdin io.Reader, field string) (domain.State, error) {
	raw := arg
	switch {
	case arg == "":
		return domain.State{}, nil
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		raw = string(data)
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.State{}, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		return domain.ParseInput([]byte(trimmed))
	}
	if field == "" {
		field = domain.MessagesKey
	}
	return domain.State{field: domain.HumanMessage(trimmed)}, nil
}
