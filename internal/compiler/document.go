// Package compiler turns CUE transform documents into ir.Document values
// and checks them statically.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/yakshavingxyz/datadance/internal/cuevalue"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// CompileDocument parses a CUE value into a Document.
//
// The CUE value should be the document struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`document: orders: { settings: ..., transforms: [...] }`)
//	doc, err := CompileDocument(v.LookupPath(cue.ParsePath("document.orders")))
//
// The document name is taken from a name field when present, otherwise from
// the struct label.
func CompileDocument(v cue.Value) (*ir.Document, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &ir.Document{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		doc.Name = labels[len(labels)-1].String()
	}
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, &CompileError{Field: "name", Message: "name must be a string", Pos: nameVal.Pos()}
		}
		doc.Name = name
	}

	if settingsVal := v.LookupPath(cue.ParsePath("settings")); settingsVal.Exists() {
		raw, err := cuevalue.FromCUE(settingsVal)
		if err != nil {
			return nil, formatCUEError(err)
		}
		settings, err := ir.DecodeSettings(raw)
		if err != nil {
			return nil, decodeErrorAt(err, settingsVal.Pos())
		}
		doc.Settings = settings
	}

	transformsVal := v.LookupPath(cue.ParsePath("transforms"))
	if !transformsVal.Exists() {
		return nil, &CompileError{
			Field:   "transforms",
			Message: "transforms is required",
			Pos:     v.Pos(),
		}
	}
	rules, err := compileRules(transformsVal)
	if err != nil {
		return nil, err
	}
	doc.Transforms = rules

	return doc, nil
}

// CompileDocuments compiles every document in v. A value with a transforms
// field is a single document; otherwise documents are read from the
// document struct, in label order.
func CompileDocuments(v cue.Value) ([]ir.Document, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	if v.LookupPath(cue.ParsePath("transforms")).Exists() {
		doc, err := CompileDocument(v)
		if err != nil {
			return nil, err
		}
		return []ir.Document{*doc}, nil
	}

	docsVal := v.LookupPath(cue.ParsePath("document"))
	if !docsVal.Exists() {
		return nil, nil
	}
	iter, err := docsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var docs []ir.Document
	for iter.Next() {
		doc, err := CompileDocument(iter.Value())
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// compileRules decodes the transforms list rule by rule so that decode
// errors carry the position of the offending rule.
func compileRules(v cue.Value) ([]ir.Rule, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "transforms",
			Message: "transforms must be a list of rules",
			Pos:     v.Pos(),
		}
	}

	var rules []ir.Rule
	for i := 0; iter.Next(); i++ {
		ruleVal := iter.Value()
		raw, err := cuevalue.FromCUE(ruleVal)
		if err != nil {
			return nil, formatCUEError(err)
		}
		rule, err := ir.DecodeRule(raw)
		if err != nil {
			return nil, decodeErrorAt(err, ruleVal.Pos(), fmt.Sprintf("transforms[%d]", i))
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// decodeErrorAt converts an ir.DecodeError into a CompileError at pos.
// DecodeRule reports paths relative to "rule"; prefix replaces that root.
func decodeErrorAt(err error, pos token.Pos, prefix ...string) error {
	de, ok := err.(*ir.DecodeError)
	if !ok {
		return err
	}
	field := de.Path
	if len(prefix) > 0 {
		field = prefix[0] + trimRoot(de.Path, "rule")
	}
	return &CompileError{Field: field, Message: de.Message, Pos: pos}
}

func trimRoot(path, root string) string {
	if len(path) >= len(root) && path[:len(root)] == root {
		return path[len(root):]
	}
	return path
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
