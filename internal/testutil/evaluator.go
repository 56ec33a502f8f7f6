// Package testutil holds deterministic evaluators shared by tests.
package testutil

import (
	"context"
	"sync"

	"github.com/yakshavingxyz/datadance/internal/evaluator"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// RecordingEvaluator wraps an evaluator and records every expression it is
// asked to evaluate, in call order.
type RecordingEvaluator struct {
	next evaluator.Evaluator

	mu    sync.Mutex
	calls []string
}

// NewRecordingEvaluator wraps next.
func NewRecordingEvaluator(next evaluator.Evaluator) *RecordingEvaluator {
	return &RecordingEvaluator{next: next}
}

// Evaluate records expression and delegates.
func (r *RecordingEvaluator) Evaluate(ctx context.Context, expression string, scope evaluator.Scope) (ir.Value, error) {
	r.mu.Lock()
	r.calls = append(r.calls, expression)
	r.mu.Unlock()
	return r.next.Evaluate(ctx, expression, scope)
}

// Calls returns a copy of the recorded expressions.
func (r *RecordingEvaluator) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Reset forgets the recorded expressions.
func (r *RecordingEvaluator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Counter returns an evaluator that ignores its expression and yields 1, 2,
// 3, ... on successive calls. It is deliberately non-deterministic across
// runs, for exercising replay mismatch detection.
func Counter() evaluator.Evaluator {
	var (
		mu sync.Mutex
		n  int64
	)
	return evaluator.Func(func(context.Context, string, evaluator.Scope) (ir.Value, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return ir.Int(n), nil
	})
}
