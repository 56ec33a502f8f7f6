package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/evaluator"
	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/runner"
	"github.com/yakshavingxyz/datadance/internal/store"
)

// DefaultBatchToken is used when a scenario does not set batch_token.
const DefaultBatchToken = "test-batch-default"

// Option configures a scenario run.
type Option func(*options)

type options struct {
	evaluator evaluator.Evaluator
	logger    *slog.Logger
}

// WithEvaluator replaces the CUE evaluator. The scenario prelude is ignored.
func WithEvaluator(e evaluator.Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithLogger sets the logger handed to the engine and runner. Logs are
// discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Run executes a scenario and returns its result.
//
// Each scenario runs in a fresh in-memory journal for isolation. The error
// return is reserved for harness failures (bad document, journal errors);
// failed expectations are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	if o.evaluator == nil {
		var evalOpts []evaluator.Option
		if scenario.Prelude != "" {
			evalOpts = append(evalOpts, evaluator.WithPrelude(scenario.Prelude))
		}
		eval, err := evaluator.NewCUE(evalOpts...)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		o.evaluator = eval
	}

	doc, err := scenario.CompiledDocument()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: document: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := scenario.BatchToken
	if token == "" {
		token = DefaultBatchToken
	}
	tokens := runner.NewRepeatingGenerator(token)
	r := runner.New(
		engine.New(o.evaluator, engine.WithLogger(o.logger)),
		runner.WithJournal(st),
		runner.WithClock(runner.NewClock()),
		runner.WithTokenGenerator(tokens),
		runner.WithLogger(o.logger),
	)

	ctx := context.Background()
	result := NewResult(scenario.Name)

	for i, c := range scenario.Cases {
		cr, err := runCase(ctx, r, doc, c)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: cases[%d] %s: %w", scenario.Name, i, c.Name, err)
		}
		result.AddCase(cr)
		o.logger.Info("case completed", "scenario", scenario.Name, "case", c.Name, "pass", cr.Pass)
	}

	report, err := r.Replay(ctx, tokens.Generate())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: replay: %w", scenario.Name, err)
	}
	for _, m := range report.Mismatches {
		result.AddError(fmt.Sprintf("replay of seq %d produced %s, journaled %s", m.Seq, display(m.Actual), display(m.Expected)))
	}

	return result, nil
}

func runCase(ctx context.Context, r *runner.Runner, doc ir.Document, c Case) (CaseResult, error) {
	input, err := toObject(c.Input)
	if err != nil {
		return CaseResult{}, fmt.Errorf("input: %w", err)
	}
	if c.Settings != nil {
		doc.Settings = ir.Settings{MergeMethod: c.Settings.MergeMethod}
	}

	batch, err := r.RunBatch(ctx, doc, []ir.Object{input})
	if err != nil {
		return CaseResult{}, err
	}
	run := batch.Runs[0]

	cr := CaseResult{
		Name:      c.Name,
		Seq:       run.Seq,
		RunID:     run.ID,
		Result:    run.Result,
		Derived:   run.Derived,
		ErrorCode: run.ErrorCode,
	}
	for _, err := range EvaluateExpect(c.Expect, &cr) {
		cr.Errors = append(cr.Errors, err.Error())
	}
	return cr, nil
}
