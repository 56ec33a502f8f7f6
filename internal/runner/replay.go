package runner

import (
	"context"
	"fmt"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Mismatch is a journaled run whose replay produced a different result.
type Mismatch struct {
	RunID    string
	Seq      int64
	Expected ir.Object
	Actual   ir.Object
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Token      string
	Runs       int
	Matched    int
	Mismatches []Mismatch
}

// OK reports whether every run reproduced its journaled result.
func (r *ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-applies every run of a journaled batch with a fresh context and
// compares result hashes with the journal. Nothing is written.
func (r *Runner) Replay(ctx context.Context, batchToken string) (*ReplayReport, error) {
	if r.journal == nil {
		return nil, ErrNoJournal
	}

	runs, err := r.journal.ReadBatch(ctx, batchToken)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", batchToken, err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("replay %s: batch not found", batchToken)
	}

	report := &ReplayReport{Token: batchToken, Runs: len(runs)}
	docs := make(map[string]ir.Document)

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc, ok := docs[run.DocumentHash]
		if !ok {
			doc, err = r.journal.ReadDocument(ctx, run.DocumentHash)
			if err != nil {
				return report, fmt.Errorf("replay %s: read document %s: %w", batchToken, run.DocumentHash, err)
			}
			docs[run.DocumentHash] = doc
		}

		res, _ := r.Apply(ctx, doc, run.Input)
		actual := res.Wire()

		same, err := sameResult(run.Result, actual)
		if err != nil {
			return report, fmt.Errorf("replay %s: run %s: %w", batchToken, run.ID, err)
		}
		if same {
			report.Matched++
			continue
		}
		report.Mismatches = append(report.Mismatches, Mismatch{
			RunID:    run.ID,
			Seq:      run.Seq,
			Expected: run.Result,
			Actual:   actual,
		})
		r.logger.WarnContext(ctx, "replay mismatch", "batch", batchToken, "run", run.ID, "seq", run.Seq)
	}

	return report, nil
}

func sameResult(expected, actual ir.Object) (bool, error) {
	h1, err := ir.ResultHash(expected)
	if err != nil {
		return false, err
	}
	h2, err := ir.ResultHash(actual)
	if err != nil {
		return false, err
	}
	return h1 == h2, nil
}
