package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Expression is the right-hand side of a rule: either a Scalar expression
// evaluated by the expression evaluator, or a Group of nested rules.
type Expression interface {
	expression() // Sealed - only Scalar and Group implement it
}

// Scalar is the source text of an expression, e.g. "input.a + input.b".
type Scalar string

func (Scalar) expression() {}

// Group is an ordered sequence of nested rules scoped under the parent
// rule's field name.
type Group []Rule

func (Group) expression() {}

// Rule maps a field name to an Expression.
//
// A well-formed rule has exactly one key. Rules are kept as maps so that
// malformed rules survive decoding and are reported by the engine when they
// are reached.
type Rule map[string]Expression

// Binding returns the rule's single field and expression.
// ok is false unless the rule has exactly one key.
func (r Rule) Binding() (field string, expr Expression, ok bool) {
	if len(r) != 1 {
		return "", nil, false
	}
	for k, v := range r {
		field, expr = k, v
	}
	return field, expr, true
}

// FieldName returns the name used to attribute results of this rule:
// its only key, the first key in canonical order for malformed rules, or ""
// for an empty rule.
func (r Rule) FieldName() string {
	if len(r) == 0 {
		return ""
	}
	keys := make(Object, len(r))
	for k := range r {
		keys[k] = Null{}
	}
	return keys.SortedKeys()[0]
}

// Value encodes the rule back into its document shape.
func (r Rule) Value() Object {
	obj := make(Object, len(r))
	for field, expr := range r {
		obj[field] = ExpressionValue(expr)
	}
	return obj
}

// MarshalJSON implements json.Marshaler for Rule.
func (r Rule) MarshalJSON() ([]byte, error) {
	return MarshalValue(r.Value())
}

// UnmarshalJSON implements json.Unmarshaler for Rule.
func (r *Rule) UnmarshalJSON(data []byte) error {
	val, err := UnmarshalValue(data)
	if err != nil {
		return err
	}
	rule, err := DecodeRule(val)
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// ExpressionValue encodes an expression: Scalars become strings, Groups
// become arrays of rule objects.
func ExpressionValue(expr Expression) Value {
	switch e := expr.(type) {
	case Scalar:
		return String(e)
	case Group:
		arr := make(Array, len(e))
		for i, nested := range e {
			arr[i] = nested.Value()
		}
		return arr
	default:
		return Null{}
	}
}

// Settings control how the engine composes its final output.
type Settings struct {
	// MergeMethod is one of overwrite, preserve or transforms_only
	// (case-insensitive). Empty is invalid; there is no default.
	MergeMethod string `json:"merge_method" yaml:"merge_method"`
}

// Value encodes the settings. An empty merge method is omitted.
func (s Settings) Value() Object {
	obj := Object{}
	if s.MergeMethod != "" {
		obj["merge_method"] = String(s.MergeMethod)
	}
	return obj
}

// Document is a named, reusable transform definition.
type Document struct {
	Name       string   `json:"name,omitempty"`
	Settings   Settings `json:"settings"`
	Transforms []Rule   `json:"transforms"`
}

// Value encodes the document into its on-disk shape.
func (d Document) Value() Object {
	rules := make(Array, len(d.Transforms))
	for i, r := range d.Transforms {
		rules[i] = r.Value()
	}
	obj := Object{
		"settings":   d.Settings.Value(),
		"transforms": rules,
	}
	if d.Name != "" {
		obj["name"] = String(d.Name)
	}
	return obj
}

// MarshalJSON implements json.Marshaler for Document.
func (d Document) MarshalJSON() ([]byte, error) {
	return MarshalValue(d.Value())
}

// UnmarshalJSON implements json.Unmarshaler for Document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	doc, err := DecodeDocument(obj)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// DecodeError reports a document that cannot be decoded, with the path of
// the offending element (e.g. "transforms[2].address[0]").
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DecodeDocument decodes a document object with keys name, settings and
// transforms.
func DecodeDocument(obj Object) (Document, error) {
	var doc Document

	if name, ok := obj["name"]; ok {
		s, isString := name.(String)
		if !isString {
			return doc, &DecodeError{Path: "name", Message: "must be a string"}
		}
		doc.Name = string(s)
	}

	if settings, ok := obj["settings"]; ok {
		s, err := DecodeSettings(settings)
		if err != nil {
			return doc, err
		}
		doc.Settings = s
	}

	transforms, ok := obj["transforms"]
	if !ok {
		return doc, &DecodeError{Path: "transforms", Message: "transforms is required"}
	}
	rules, err := decodeRules(transforms, "transforms")
	if err != nil {
		return doc, err
	}
	doc.Transforms = rules
	return doc, nil
}

// DecodeSettings decodes a settings object. Unknown keys are ignored.
func DecodeSettings(v Value) (Settings, error) {
	var s Settings
	switch val := v.(type) {
	case Null:
		return s, nil
	case Object:
		if mm, ok := val["merge_method"]; ok {
			switch m := mm.(type) {
			case String:
				s.MergeMethod = string(m)
			case Null:
			default:
				return s, &DecodeError{Path: "settings.merge_method", Message: "must be a string"}
			}
		}
		return s, nil
	default:
		return s, &DecodeError{Path: "settings", Message: fmt.Sprintf("must be an object, got %s", KindOf(v))}
	}
}

// DecodeRules decodes an array of rule objects.
func DecodeRules(v Value) ([]Rule, error) {
	return decodeRules(v, "transforms")
}

// DecodeRule decodes one rule object. Rules with zero or several keys are
// decoded as-is.
func DecodeRule(v Value) (Rule, error) {
	return decodeRule(v, "rule")
}

func decodeRules(v Value, path string) ([]Rule, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("must be an array of rules, got %s", KindOf(v))}
	}
	rules := make([]Rule, len(arr))
	for i, elem := range arr {
		rule, err := decodeRule(elem, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		rules[i] = rule
	}
	return rules, nil
}

func decodeRule(v Value, path string) (Rule, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("rule must be an object, got %s", KindOf(v))}
	}
	rule := make(Rule, len(obj))
	for _, field := range obj.SortedKeys() {
		expr, err := decodeExpression(obj[field], path+"."+field)
		if err != nil {
			return nil, err
		}
		rule[field] = expr
	}
	return rule, nil
}

// decodeExpression accepts expression strings, arrays of nested rules, and
// bare numbers or booleans, which stand for their own literal text.
func decodeExpression(v Value, path string) (Expression, error) {
	switch val := v.(type) {
	case String:
		return Scalar(val), nil
	case Int:
		return Scalar(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		return Scalar(strconv.FormatFloat(float64(val), 'g', -1, 64)), nil
	case Bool:
		return Scalar(strconv.FormatBool(bool(val))), nil
	case Array:
		rules, err := decodeRules(val, path)
		if err != nil {
			return nil, err
		}
		return Group(rules), nil
	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("expression must be a string or an array of rules, got %s", KindOf(v))}
	}
}
