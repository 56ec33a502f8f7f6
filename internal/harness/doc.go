// Package harness runs YAML transformation scenarios against the real engine.
//
// A scenario names one transform document and a list of cases. Each case
// feeds an input record through runner.Runner (optionally with per-case
// settings) and checks the outcome:
//
//	name: orders_overwrite
//	description: Totals an order.
//	document:
//	  settings: {merge_method: overwrite}
//	  transforms:
//	    - total: input.price * input.qty
//	cases:
//	  - name: large order
//	    input: {price: 50, qty: 3}
//	    expect:
//	      derived: {total: 150}      # subset match
//	  - name: missing quantity
//	    input: {price: 50}
//	    expect:
//	      error: error-102           # wire code of the error object
//
// expect.result is an exact match on the wire result; expect.derived is a
// subset match on the derived state; expect.error (with optional
// expect.message) matches an error object.
//
// Every scenario runs against a fresh in-memory journal with a logical clock
// starting at 1 and a fixed batch token, so snapshots are byte-identical
// across runs. After the cases, the journaled batch is replayed; a replay
// mismatch fails the scenario.
//
// Golden snapshots (RunWithGolden, AssertGolden) live in testdata/golden and
// are regenerated with
//
//	go test ./internal/harness -update
package harness
