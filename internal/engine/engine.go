package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yakshavingxyz/datadance/internal/evaluator"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Engine applies transformation rules using an expression evaluator.
//
// An Engine holds no per-call state and is safe for concurrent use by
// independent top-level calls.
type Engine struct {
	eval   evaluator.Evaluator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Rules are logged at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine that evaluates scalar expressions with eval.
func New(eval evaluator.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		eval:   eval,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a transformation: either Output or Err is set.
type Result struct {
	Output ir.Object
	Err    *Error
}

// OK reports whether the transformation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Wire renders the result at the public boundary: the output mapping, or
// the single-key error object.
func (r Result) Wire() ir.Object {
	if r.Err != nil {
		return r.Err.Wire()
	}
	return r.Output
}

// Transform applies tc.Transforms to tc.Input and merges the output
// according to tc.Settings.
//
// Transform never panics. A nil Derived is seeded with a deep copy of Input;
// a nil PathTrace is created empty. Both are mutated in place.
func (e *Engine) Transform(ctx context.Context, tc *Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			var path []string
			if tc != nil && tc.PathTrace != nil {
				path = tc.PathTrace.Segments()
			}
			res = e.fail(ctx, &Error{
				Kind:    KindInternal,
				Message: fmt.Sprint(r),
				Path:    path,
			})
		}
	}()

	if tc.Derived == nil {
		tc.Derived = tc.Input.Clone()
		if tc.Derived == nil {
			tc.Derived = ir.Object{}
		}
	}
	if tc.PathTrace == nil {
		tc.PathTrace = &PathTrace{}
	}

	output := ir.Object{}
	for _, rule := range tc.Transforms {
		field, expr, ok := rule.Binding()
		if !ok {
			return e.fail(ctx, &Error{
				Kind:    KindRuleShape,
				Message: "each transform must have exactly one key",
				Field:   rule.FieldName(),
				Path:    tc.PathTrace.Segments(),
			})
		}

		switch x := expr.(type) {
		case ir.Group:
			e.logger.DebugContext(ctx, "apply rule",
				"field", field, "path", tc.PathTrace.String(), "kind", "group", "rules", len(x))
			output[field] = e.transformGroup(ctx, tc, field, x)

		case ir.Scalar:
			e.logger.DebugContext(ctx, "apply rule",
				"field", field, "path", tc.PathTrace.String(), "kind", "scalar")
			value, err := e.evaluate(ctx, tc, field, x)
			if err != nil {
				return e.fail(ctx, err)
			}
			output[field] = value
			if !tc.IsSubTransformation {
				tc.Derived[field] = value
			}

		default:
			panic(fmt.Sprintf("unsupported expression %T for field %q", expr, field))
		}
	}

	method, ok := ParseMergeMethod(tc.Settings.MergeMethod)
	if !ok {
		return e.fail(ctx, &Error{
			Kind:    KindInvalidMergeMethod,
			Message: "Invalid merge method",
			Path:    tc.PathTrace.Segments(),
		})
	}
	return Result{Output: Merge(method, tc.Input, output)}
}

func (e *Engine) evaluate(ctx context.Context, tc *Context, field string, expr ir.Scalar) (ir.Value, *Error) {
	value, err := e.eval.Evaluate(ctx, string(expr), evaluator.Scope{
		Input:   tc.Input,
		Derived: tc.Derived,
	})
	switch {
	case errors.Is(err, evaluator.ErrUndefined), err == nil && value == nil:
		return nil, &Error{
			Kind:    KindUnresolvedReference,
			Message: fmt.Sprintf("the transform %s uses variables not available in the context", expr),
			Field:   field,
			Path:    tc.PathTrace.Segments(),
			Cause:   err,
		}
	case err != nil:
		return nil, &Error{
			Kind:    KindEvaluation,
			Message: err.Error(),
			Field:   field,
			Path:    tc.PathTrace.Segments(),
			Cause:   err,
		}
	}
	return value, nil
}

// transformGroup evaluates a sub-transformation group and returns the
// accumulated object stored under field.
func (e *Engine) transformGroup(ctx context.Context, tc *Context, field string, group ir.Group) ir.Object {
	tc.PathTrace.Push(field)
	defer tc.PathTrace.Pop()

	acc := ir.Object{}
	for _, nested := range group {
		e.groupStep(ctx, tc, nested, acc)
	}
	return acc
}

// groupStep runs one nested rule on a narrowed copy of tc, folds the partial
// result into acc and writes it into Derived under the current path.
func (e *Engine) groupStep(ctx context.Context, tc *Context, nested ir.Rule, acc ir.Object) {
	sub := *tc
	sub.Transforms = []ir.Rule{nested}
	sub.Settings = ir.Settings{MergeMethod: string(MergeTransformsOnly)}
	sub.IsSubTransformation = true

	res := e.Transform(ctx, &sub)

	nestedField := nested.FieldName()
	tc.PathTrace.Push(nestedField)
	defer tc.PathTrace.Pop()

	partial := res.Output
	if !res.OK() {
		partial = ir.Object{nestedField: res.Err.Wire()}
	}
	for k, v := range partial {
		acc[k] = v
	}
	WriteDerived(tc.Derived, partial, tc.PathTrace.Segments())
}

func (e *Engine) fail(ctx context.Context, err *Error) Result {
	e.logger.DebugContext(ctx, "transform aborted",
		"code", err.Kind.Code(), "kind", err.Kind.String(), "field", err.Field, "error", err.Message)
	return Result{Err: err}
}
