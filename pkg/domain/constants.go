package domain

// Reserved markers for the entry and exit of every graph.
// They are never registered as nodes.
const (
	// START is the virtual entry point. Its outgoing edge (or router) selects the first node.
	START = "__start__"
	// END is the virtual terminal marker. Reaching it stops execution.
	END = "__end__"
)

// IsReserved reports whether name is one of the reserved markers.
func IsReserved(name string) bool {
	return name == START || name == END
}

// Field constants for mapstructure and JSON standardization.
const (
	// KeyEncrypted is the state field that carries an encrypted checkpoint envelope.
	KeyEncrypted = "__encrypted__"
)
