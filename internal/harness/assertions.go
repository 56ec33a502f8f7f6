package harness

import (
	"fmt"
	"strings"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Assertion types.
const (
	AssertResult  = "result"
	AssertDerived = "derived"
	AssertError   = "error"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // AssertResult, AssertDerived or AssertError
	Path     string // location of the first difference, "" for the root
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s assertion failed", e.Type)
	if e.Path != "" {
		fmt.Fprintf(&buf, " at %s", e.Path)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateExpect checks cr against e and returns one error per failed
// expectation.
func EvaluateExpect(e Expect, cr *CaseResult) []error {
	var errs []error

	if e.Result != nil {
		if err := assertResult(e.Result, cr.Result); err != nil {
			errs = append(errs, err)
		}
	}
	if e.Derived != nil {
		if err := assertDerived(e.Derived, cr.Derived); err != nil {
			errs = append(errs, err)
		}
	}
	if e.Error != "" {
		if err := assertError(e.Error, e.Message, cr.Result); err != nil {
			errs = append(errs, err)
		}
	} else if cr.ErrorCode != "" && e.Result == nil {
		// A derived-only expectation still requires a successful run.
		errs = append(errs, &AssertionError{
			Type:     AssertError,
			Expected: "no error",
			Actual:   display(cr.Result),
		})
	}
	return errs
}

// assertResult requires an exact match.
func assertResult(expected map[string]any, actual ir.Object) error {
	want, err := toObject(expected)
	if err != nil {
		return fmt.Errorf("expect.result: %w", err)
	}
	if ir.MustResultHash(want) == ir.MustResultHash(actual) {
		return nil
	}
	path, _ := firstDifference("", want, actual, false)
	return &AssertionError{
		Type:     AssertResult,
		Path:     path,
		Expected: display(want),
		Actual:   display(actual),
	}
}

// assertDerived requires every expected key to be present with an equal
// value. Nested objects are compared the same way; arrays and scalars must
// be equal.
func assertDerived(expected map[string]any, actual ir.Object) error {
	want, err := toObject(expected)
	if err != nil {
		return fmt.Errorf("expect.derived: %w", err)
	}
	path, differs := firstDifference("", want, actual, true)
	if !differs {
		return nil
	}
	return &AssertionError{
		Type:     AssertDerived,
		Path:     path,
		Expected: display(want),
		Actual:   display(actual),
	}
}

func assertError(code, message string, result ir.Object) error {
	got := engine.ErrorFromWire(result)
	if got == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: code,
			Actual:   "no error: " + display(result),
		}
	}
	if got.Kind.Code() != code {
		return &AssertionError{
			Type:     AssertError,
			Expected: code,
			Actual:   got.Kind.Code() + ": " + got.Message,
		}
	}
	if message != "" && got.Message != message {
		return &AssertionError{
			Type:     AssertError,
			Path:     code,
			Expected: message,
			Actual:   got.Message,
		}
	}
	return nil
}

// firstDifference walks want against got and returns the dotted path of the
// first mismatch. With subset set, keys of got missing from want are
// ignored.
func firstDifference(path string, want, got ir.Value, subset bool) (string, bool) {
	wantObj, wantIsObj := want.(ir.Object)
	gotObj, gotIsObj := got.(ir.Object)
	if wantIsObj && gotIsObj {
		for _, k := range wantObj.SortedKeys() {
			gv, ok := gotObj[k]
			if !ok {
				return join(path, k), true
			}
			if p, differs := firstDifference(join(path, k), wantObj[k], gv, subset); differs {
				return p, true
			}
		}
		if !subset {
			for _, k := range gotObj.SortedKeys() {
				if _, ok := wantObj[k]; !ok {
					return join(path, k), true
				}
			}
		}
		return "", false
	}

	if ir.MustResultHash(ir.Object{"v": want}) != ir.MustResultHash(ir.Object{"v": got}) {
		return path, true
	}
	return "", false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func toObject(m map[string]any) (ir.Object, error) {
	v, err := ir.FromGo(m)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("expected mapping, got %s", ir.KindOf(v))
	}
	return obj, nil
}

func display(obj ir.Object) string {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}
