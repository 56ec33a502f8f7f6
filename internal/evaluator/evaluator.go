// Package evaluator provides the expression capability consumed by the
// transform engine.
//
// The engine only relies on three outcomes of Evaluate: a value, ErrUndefined
// when the expression references something absent from the scope, or any
// other error when evaluation fails.
package evaluator

import (
	"context"
	"errors"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// ErrUndefined is returned (possibly wrapped) when an expression references a
// variable or field that is not present in its scope.
var ErrUndefined = errors.New("expression references a variable not present in the context")

// Scope is the data visible to an expression.
type Scope struct {
	Input   ir.Object
	Derived ir.Object
}

// Value returns the scope as the object {input, derived}.
func (s Scope) Value() ir.Object {
	input, derived := s.Input, s.Derived
	if input == nil {
		input = ir.Object{}
	}
	if derived == nil {
		derived = ir.Object{}
	}
	return ir.Object{"input": input, "derived": derived}
}

// Evaluator evaluates a single expression against a scope.
// Implementations must be safe for concurrent use by independent calls.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, scope Scope) (ir.Value, error)
}

// Func adapts an ordinary function to the Evaluator interface.
type Func func(ctx context.Context, expression string, scope Scope) (ir.Value, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, expression string, scope Scope) (ir.Value, error) {
	return f(ctx, expression, scope)
}
