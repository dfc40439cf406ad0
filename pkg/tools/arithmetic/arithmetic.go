// Package arithmetic provides the add, multiply and divide tools used by the
// calculator agent.
package arithmetic

import (
	"context"
	"errors"

	"github.com/aretw0/stategraph/pkg/registry"
)

// ErrDivisionByZero is returned by divide when b is zero.
var ErrDivisionByZero = errors.New("division by zero")

// Operands are the arguments shared by every arithmetic tool.
type Operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Add returns a + b.
func Add(_ context.Context, in Operands) (float64, error) {
	return in.A + in.B, nil
}

// Multiply returns a * b.
func Multiply(_ context.Context, in Operands) (float64, error) {
	return in.A * in.B, nil
}

// Divide returns a / b.
func Divide(_ context.Context, in Operands) (float64, error) {
	if in.B == 0 {
		return 0, ErrDivisionByZero
	}
	return in.A / in.B, nil
}

// Register adds the three tools to reg.
func Register(reg *registry.Registry) error {
	return errors.Join(
		registry.RegisterFunc(reg, "add", "Adds a and b.", Add),
		registry.RegisterFunc(reg, "multiply", "Multiply a and b.", Multiply),
		registry.RegisterFunc(reg, "divide", "Divide a by b.", Divide),
	)
}

// NewRegistry returns a registry holding only the arithmetic tools.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}
