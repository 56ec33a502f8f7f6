package harness

import "github.com/yakshavingxyz/datadance/internal/ir"

// CaseResult is the outcome of one scenario case.
type CaseResult struct {
	Name string

	// Seq and RunID identify the journaled run.
	Seq   int64
	RunID string

	// Result is the wire result: the merged output or the error object.
	Result ir.Object

	// Derived is the derived state after the run.
	Derived ir.Object

	// ErrorCode is the wire code when Result is an error object.
	ErrorCode string

	Pass   bool
	Errors []string
}

// Result is the outcome of a scenario.
type Result struct {
	Scenario string

	// Pass is true when every case passed and the replay matched.
	Pass bool

	Cases []CaseResult

	// Errors collects every failure message, prefixed with its case name.
	Errors []string
}

// NewResult creates a passing result for the named scenario.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a scenario-level failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase appends a case result, folding its failures into the scenario.
func (r *Result) AddCase(cr CaseResult) {
	cr.Pass = len(cr.Errors) == 0
	r.Cases = append(r.Cases, cr)
	for _, msg := range cr.Errors {
		r.AddError(cr.Name + ": " + msg)
	}
}
