package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Event is one line emitted by the JSONHandler.
type Event struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Text    string          `json:"text,omitempty"`
}

const (
	EventMessage = "message"
	EventSystem  = "system"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each input line is either a JSON string (a human message) or a JSON object
// merged into the state. Each output line is an Event.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, messages []domain.Message) error {
	for i := range messages {
		if messages[i].Role == domain.RoleHuman {
			continue
		}
		if err := h.Encoder.Encode(Event{Type: EventMessage, Message: &messages[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Input reads the next non-blank line. JSON strings are unquoted, objects are passed through verbatim.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}

		var val string
		if json.Unmarshal([]byte(text), &val) == nil {
			return SanitizeInput(val)
		}
		return SanitizeInput(text)
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: EventSystem, Text: msg})
}
