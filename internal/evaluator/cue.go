package evaluator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/ast/astutil"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/yakshavingxyz/datadance/internal/cuevalue"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Scope roots visible to expressions.
const (
	RootInput   = "input"
	RootDerived = "derived"
)

// CUE evaluates expressions written in the CUE expression language.
//
// Expressions see two fields, input and derived, plus any declarations from
// the prelude. Standard library packages are available without imports
// (strings.ToUpper(input.name), math.Floor(derived.x)).
//
// Every evaluation builds a fresh cue.Context, so a single CUE value may be
// shared by concurrent callers.
type CUE struct {
	prelude string
}

// Option configures a CUE evaluator.
type Option func(*CUE)

// WithPrelude adds CUE declarations visible to every expression, for
// example constants (`vat: 0.2`). A prelude that computes helpers from the
// record declares the root it reads, e.g. `input: _` followed by
// `gross: input.net * (1 + vat)`. The record is unified into that root.
func WithPrelude(src string) Option {
	return func(c *CUE) {
		c.prelude = src
	}
}

// NewCUE constructs a CUE evaluator. The prelude, if any, is compiled once
// here so that syntax errors surface at construction.
func NewCUE(opts ...Option) (*CUE, error) {
	c := &CUE{}
	for _, opt := range opts {
		opt(c)
	}

	if c.prelude != "" {
		v := cuecontext.New().CompileString(c.prelude, cue.Filename("prelude.cue"))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile prelude: %w", err)
		}
	}
	return c, nil
}

// Evaluate implements Evaluator.
func (c *CUE) Evaluate(ctx context.Context, expression string, scope Scope) (ir.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expr, err := parser.ParseExpr("expression", expression)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expression, err)
	}
	expr = quoteDataSelectors(expr)

	data := scope.Value()
	if ref, ok := firstUnresolved(expr, data); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, ref)
	}

	cctx := cuecontext.New()
	scopeVal := cctx.CompileString(c.prelude, cue.Filename("prelude.cue"))
	if err := scopeVal.Err(); err != nil {
		return nil, fmt.Errorf("compile prelude: %w", err)
	}
	scopeVal = scopeVal.
		FillPath(cue.ParsePath(RootInput), cuevalue.ToCUE(cctx, data[RootInput])).
		FillPath(cue.ParsePath(RootDerived), cuevalue.ToCUE(cctx, data[RootDerived]))

	v := cctx.BuildExpr(expr, cue.Scope(scopeVal), cue.InferBuiltins(true))
	if err := v.Err(); err != nil {
		return nil, classify(expression, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, classify(expression, err)
	}

	out, err := cuevalue.FromCUE(v)
	if err != nil {
		return nil, classify(expression, err)
	}
	return out, nil
}

// classify maps unknown identifiers to ErrUndefined and everything else to a
// plain evaluation error.
func classify(expression string, err error) error {
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		if format == "reference %q not found" {
			name := ""
			if len(args) > 0 {
				name = fmt.Sprint(args[0])
			}
			return fmt.Errorf("%w: %s", ErrUndefined, name)
		}
	}
	return fmt.Errorf("evaluate %q: %w", expression, err)
}

// firstUnresolved walks expr for selector and index chains rooted at input
// or derived and reports the first one that does not resolve in data.
// Chains with dynamic segments are only checked up to the first dynamic
// segment.
func firstUnresolved(expr ast.Expr, data ir.Object) (string, bool) {
	missing := ""
	ast.Walk(expr, func(n ast.Node) bool {
		if missing != "" {
			return false
		}
		e, isExpr := n.(ast.Expr)
		if !isExpr {
			return true
		}
		switch e.(type) {
		case *ast.SelectorExpr, *ast.IndexExpr:
		default:
			return true
		}

		root, segs := referenceChain(e)
		if root != RootInput && root != RootDerived {
			return true
		}
		if path, ok := resolve(data[root], root, segs); !ok {
			missing = path
			return false
		}
		return true
	}, nil)
	return missing, missing == ""
}

// quoteDataSelectors rewrites input._id and derived.#x into input["_id"] and
// derived["#x"]. Record keys are plain string labels, while CUE reads an
// identifier starting with _ or # as a hidden field or a definition.
func quoteDataSelectors(expr ast.Expr) ast.Expr {
	out := astutil.Apply(expr, nil, func(c astutil.Cursor) bool {
		sel, ok := c.Node().(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.Sel.(*ast.Ident)
		if !ok || !strings.HasPrefix(ident.Name, "_") && !strings.HasPrefix(ident.Name, "#") {
			return true
		}
		if root, _ := referenceChain(sel.X); root != RootInput && root != RootDerived {
			return true
		}
		c.Replace(&ast.IndexExpr{X: sel.X, Index: ast.NewString(ident.Name)})
		return true
	})
	return out.(ast.Expr)
}

// segment is one static step of a reference chain: an object key or a list
// index.
type segment struct {
	key     string
	index   int
	isIndex bool
}

// referenceChain flattens a selector/index chain such as input.a["b"][0]
// into its root identifier and static segments. Segments after the first
// dynamic index are dropped.
func referenceChain(e ast.Expr) (string, []segment) {
	var segs []segment
	for {
		switch x := e.(type) {
		case *ast.Ident:
			return x.Name, segs
		case *ast.SelectorExpr:
			name, _, err := ast.LabelName(x.Sel)
			if err != nil {
				segs = nil
			} else {
				segs = append([]segment{{key: name}}, segs...)
			}
			e = x.X
		case *ast.IndexExpr:
			seg, ok := staticIndex(x.Index)
			if !ok {
				segs = nil
			} else {
				segs = append([]segment{seg}, segs...)
			}
			e = x.X
		case *ast.ParenExpr:
			e = x.X
		default:
			return "", nil
		}
	}
}

func staticIndex(e ast.Expr) (segment, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok {
		return segment{}, false
	}
	switch lit.Kind {
	case token.INT:
		n, err := strconv.Atoi(lit.Value)
		if err != nil {
			return segment{}, false
		}
		return segment{index: n, isIndex: true}, true
	case token.STRING:
		s, err := literal.Unquote(lit.Value)
		if err != nil {
			return segment{}, false
		}
		return segment{key: s}, true
	default:
		return segment{}, false
	}
}

// resolve follows segs through v and returns the dotted path that failed.
func resolve(v ir.Value, root string, segs []segment) (string, bool) {
	path := root
	for _, seg := range segs {
		if seg.isIndex {
			path += fmt.Sprintf("[%d]", seg.index)
			arr, ok := v.(ir.Array)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return path, false
			}
			v = arr[seg.index]
			continue
		}

		path += "." + seg.key
		obj, ok := v.(ir.Object)
		if !ok {
			return path, false
		}
		next, exists := obj[seg.key]
		if !exists {
			return path, false
		}
		v = next
	}
	return path, true
}
