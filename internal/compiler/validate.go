package compiler

import (
	"fmt"

	"cuelang.org/go/cue/parser"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrRuleShape          = "E201" // rule does not have exactly one key
	ErrEmptyFieldName     = "E202" // rule field name is empty
	ErrExpressionSyntax   = "E203" // scalar expression does not parse
	ErrInvalidMergeMethod = "E204" // merge method missing or unknown
	ErrEmptyGroup         = "E205" // sub-transformation group has no rules
)

// ValidationError represents a static document error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a document without evaluating it.
// Returns all errors found (does not fail-fast).
//
// Every problem reported here would otherwise surface at transform time as
// an error-101 (rule shape), error-103 (syntax) or error-104 (merge method).
func Validate(doc *ir.Document) []ValidationError {
	var errs []ValidationError

	if doc.Settings.MergeMethod == "" {
		errs = append(errs, ValidationError{
			Field:   "settings.merge_method",
			Message: "merge method is required",
			Code:    ErrInvalidMergeMethod,
		})
	} else if _, ok := engine.ParseMergeMethod(doc.Settings.MergeMethod); !ok {
		errs = append(errs, ValidationError{
			Field:   "settings.merge_method",
			Message: fmt.Sprintf("unknown merge method %q (want one of %v)", doc.Settings.MergeMethod, engine.MergeMethods),
			Code:    ErrInvalidMergeMethod,
		})
	}

	errs = append(errs, validateRules(doc.Transforms, "transforms")...)
	return errs
}

func validateRules(rules []ir.Rule, path string) []ValidationError {
	var errs []ValidationError
	for i, rule := range rules {
		errs = append(errs, validateRule(rule, fmt.Sprintf("%s[%d]", path, i))...)
	}
	return errs
}

func validateRule(rule ir.Rule, path string) []ValidationError {
	field, expr, ok := rule.Binding()
	if !ok {
		return []ValidationError{{
			Field:   path,
			Message: fmt.Sprintf("rule must have exactly one key, has %d", len(rule)),
			Code:    ErrRuleShape,
		}}
	}

	var errs []ValidationError
	if field == "" {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: "field name is empty",
			Code:    ErrEmptyFieldName,
		})
	}

	fieldPath := path + "." + field
	switch e := expr.(type) {
	case ir.Scalar:
		if _, err := parser.ParseExpr("expression", string(e)); err != nil {
			errs = append(errs, ValidationError{
				Field:   fieldPath,
				Message: fmt.Sprintf("invalid expression %q: %v", string(e), err),
				Code:    ErrExpressionSyntax,
			})
		}
	case ir.Group:
		if len(e) == 0 {
			errs = append(errs, ValidationError{
				Field:   fieldPath,
				Message: "group has no rules",
				Code:    ErrEmptyGroup,
			})
		}
		errs = append(errs, validateRules(e, fieldPath)...)
	}
	return errs
}
