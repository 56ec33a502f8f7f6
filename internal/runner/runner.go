// Package runner applies transform documents to batches of records and
// replays journaled batches.
//
// Each record gets its own engine.Context, so records never observe each
// other's derived state. Runs are stamped with a logical clock and a batch
// token and, when a journal is configured, written to it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/store"
)

// ErrNoJournal is returned by operations that need a journal when the
// Runner has none.
var ErrNoJournal = errors.New("runner: no journal configured")

// Journal is the part of the store the runner writes to and replays from.
type Journal interface {
	WriteDocument(ctx context.Context, doc ir.Document) (string, error)
	WriteRun(ctx context.Context, run store.Run) error
	ReadDocument(ctx context.Context, hash string) (ir.Document, error)
	ReadBatch(ctx context.Context, batchToken string) ([]store.Run, error)
}

// Runner applies documents with an engine.
type Runner struct {
	engine  *engine.Engine
	journal Journal
	clock   *Clock
	tokens  TokenGenerator
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithJournal journals every run.
func WithJournal(j Journal) Option {
	return func(r *Runner) {
		r.journal = j
	}
}

// WithClock sets the logical clock (e.g. NewClockAt(lastSeq) to continue
// an existing journal).
func WithClock(c *Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithTokenGenerator sets the batch token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(r *Runner) {
		r.tokens = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner.
func New(eng *engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: eng,
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply transforms a single record with a fresh context and returns the
// result together with the derived state it produced.
func (r *Runner) Apply(ctx context.Context, doc ir.Document, input ir.Object) (engine.Result, ir.Object) {
	if input == nil {
		input = ir.Object{}
	}
	tc := &engine.Context{
		Input:      input,
		Transforms: doc.Transforms,
		Settings:   doc.Settings,
	}
	res := r.engine.Transform(ctx, tc)
	return res, tc.Derived
}

// Batch is the outcome of RunBatch.
type Batch struct {
	Token        string
	DocumentHash string
	Runs         []store.Run
}

// Errors counts runs that produced an error object.
func (b *Batch) Errors() int {
	n := 0
	for _, run := range b.Runs {
		if run.ErrorCode != "" {
			n++
		}
	}
	return n
}

// RunBatch applies doc to every input in order under a new batch token.
//
// Transformation errors are recorded in the runs, not returned. The error
// return is reserved for hashing and journal failures and for ctx being
// cancelled between records; the runs completed so far are returned with it.
func (r *Runner) RunBatch(ctx context.Context, doc ir.Document, inputs []ir.Object) (*Batch, error) {
	docHash, err := r.documentHash(ctx, doc)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		Token:        r.tokens.Generate(),
		DocumentHash: docHash,
		Runs:         make([]store.Run, 0, len(inputs)),
	}
	r.logger.DebugContext(ctx, "batch started",
		"batch", batch.Token, "document", doc.Name, "records", len(inputs))

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		run, err := r.runOne(ctx, batch, doc, input)
		if err != nil {
			return batch, err
		}
		batch.Runs = append(batch.Runs, run)
	}

	r.logger.InfoContext(ctx, "batch complete",
		"batch", batch.Token, "document", doc.Name, "runs", len(batch.Runs), "errors", batch.Errors())
	return batch, nil
}

func (r *Runner) runOne(ctx context.Context, batch *Batch, doc ir.Document, input ir.Object) (store.Run, error) {
	if input == nil {
		input = ir.Object{}
	}
	res, derived := r.Apply(ctx, doc, input)
	seq := r.clock.Next()

	id, err := ir.RunID(batch.Token, batch.DocumentHash, input, seq)
	if err != nil {
		return store.Run{}, err
	}

	run := store.Run{
		ID:            id,
		BatchToken:    batch.Token,
		Seq:           seq,
		DocumentHash:  batch.DocumentHash,
		Input:         input,
		Result:        res.Wire(),
		Derived:       derived,
		EngineVersion: ir.EngineVersion,
	}
	if !res.OK() {
		run.ErrorCode = res.Err.Kind.Code()
		r.logger.DebugContext(ctx, "run failed",
			"batch", batch.Token, "seq", seq, "code", run.ErrorCode, "error", res.Err.Message)
	}

	if r.journal != nil {
		if err := r.journal.WriteRun(ctx, run); err != nil {
			return store.Run{}, fmt.Errorf("journal run %d: %w", seq, err)
		}
	}
	return run, nil
}

func (r *Runner) documentHash(ctx context.Context, doc ir.Document) (string, error) {
	if r.journal != nil {
		hash, err := r.journal.WriteDocument(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("journal document: %w", err)
		}
		return hash, nil
	}
	return ir.DocumentHash(doc)
}
