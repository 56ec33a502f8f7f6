package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// ErrorKind categorizes transformation errors.
type ErrorKind int

const (
	// KindRuleShape indicates a rule without exactly one key.
	KindRuleShape ErrorKind = iota + 1

	// KindUnresolvedReference indicates an expression referencing a
	// variable absent from the context.
	KindUnresolvedReference

	// KindEvaluation indicates the evaluator failed.
	KindEvaluation

	// KindInvalidMergeMethod indicates an unrecognized or missing merge method.
	KindInvalidMergeMethod

	// KindInternal indicates a panic inside the transformation.
	KindInternal
)

var kindNames = map[ErrorKind]string{
	KindRuleShape:           "RuleShapeError",
	KindUnresolvedReference: "UnresolvedReferenceError",
	KindEvaluation:          "EvaluationError",
	KindInvalidMergeMethod:  "InvalidMergeMethodError",
	KindInternal:            "InternalError",
}

var kindCodes = map[ErrorKind]string{
	KindRuleShape:           "error-101",
	KindUnresolvedReference: "error-102",
	KindEvaluation:          "error-103",
	KindInvalidMergeMethod:  "error-104",
	KindInternal:            "error-105",
}

// String returns the kind's name, e.g. "RuleShapeError".
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Code returns the wire code, e.g. "error-101".
func (k ErrorKind) Code() string {
	return kindCodes[k]
}

// KindForCode maps a wire code back to its kind.
func KindForCode(code string) (ErrorKind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return 0, false
}

// Error is a transformation failure.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is the human-readable text carried on the wire.
	Message string

	// Field is the rule field being processed, if any.
	Field string

	// Path is the path trace at the point of failure.
	Path []string

	// Cause is the underlying error (evaluator failures).
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Kind.Code(), e.Kind, e.Message)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field=%s", e.Field)
		if len(e.Path) > 0 {
			fmt.Fprintf(&b, ", path=%s", strings.Join(e.Path, "."))
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wire renders the error as the single-key mapping {code: message}.
func (e *Error) Wire() ir.Object {
	return ir.Object{e.Kind.Code(): ir.String(e.Message)}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsErrorObject reports whether a wire mapping is an error object: one of
// its keys is a known error code.
func IsErrorObject(obj ir.Object) bool {
	for key := range obj {
		if _, ok := KindForCode(key); ok {
			return true
		}
	}
	return false
}

// ErrorFromWire decodes an error object back into an *Error. It returns nil
// if obj is not an error object.
func ErrorFromWire(obj ir.Object) *Error {
	for _, key := range obj.SortedKeys() {
		kind, ok := KindForCode(key)
		if !ok {
			continue
		}
		msg, _ := obj[key].(ir.String)
		return &Error{Kind: kind, Message: string(msg)}
	}
	return nil
}
