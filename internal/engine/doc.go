// Package engine implements the recursive transformation evaluator.
//
// A transformation applies an ordered list of single-key rules to an input
// record. Each rule maps a field name to either a scalar expression, which
// is handed to an evaluator.Evaluator, or a group of nested rules, which is
// evaluated recursively and scoped under the rule's field name.
//
// SHARED STATE:
//
// One top-level call owns a Context. Its Derived mapping and PathTrace are
// shared by pointer with every recursive step, so later rules and nested
// groups observe results written by earlier ones. Each recursive step works
// on a value copy of the Context whose rule list is narrowed to one rule and
// whose merge method is forced to transforms_only.
//
// ERRORS:
//
// Errors are data. Transform never returns a Go error and never panics; it
// returns a Result whose Err is set. Errors raised inside a group are
// captured under the originating nested field and do not abort the group.
// Result.Wire renders the single-key {code: message} mapping used at the
// public boundary.
//
// ORDERING:
//
// Rules and nested rules are evaluated strictly in order on the calling
// goroutine. Independent top-level calls may run concurrently as long as
// they use distinct Context values.
package engine
