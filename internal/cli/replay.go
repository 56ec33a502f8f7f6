package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal    string
	BatchToken string // optional - specific batch only
}

// ReplayBatchResult holds the replay result for a single batch.
type ReplayBatchResult struct {
	BatchToken    string           `json:"batch_token"`
	Runs          int              `json:"runs"`
	Matched       int              `json:"matched"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
}

// ReplayMismatch describes a run whose replay disagreed with the journal.
type ReplayMismatch struct {
	RunID    string    `json:"run_id"`
	Seq      int64     `json:"seq"`
	Expected ir.Object `json:"expected"`
	Actual   ir.Object `json:"actual"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Batches          []ReplayBatchResult `json:"batches"`
	TotalBatches     int                 `json:"total_batches"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run journaled batches and verify determinism",
		Long: `Re-apply every journaled run with a fresh context and compare the
result with the one recorded in the journal.

Exit codes:
  0 - All runs reproduced their journaled result
  1 - At least one run produced a different result
  2 - Command error (journal not found, unknown batch, etc.)

Examples:
  datadance replay --journal runs.db
  datadance replay --journal runs.db --batch 01928c4e-...
  datadance replay --journal runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (defaults to journal.path)")
	cmd.Flags().StringVar(&opts.BatchToken, "batch", "", "replay a specific batch only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	logger := opts.logger()
	path := opts.journalPath(opts.Journal)
	if path == "" {
		return NewExitError(ExitCommandError, "a journal is required: pass --journal or set journal.path")
	}

	st, err := openJournal(path)
	if err != nil {
		return err
	}
	defer closeJournal(st, logger)

	ctx := cmd.Context()

	var tokens []string
	if opts.BatchToken != "" {
		tokens = []string{opts.BatchToken}
	} else {
		batches, err := st.ListBatches(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list batches", err)
		}
		for _, b := range batches {
			tokens = append(tokens, b.Token)
		}
	}

	result := ReplayResult{
		Batches:          make([]ReplayBatchResult, 0, len(tokens)),
		TotalBatches:     len(tokens),
		AllDeterministic: true,
	}

	if len(tokens) > 0 {
		eng, err := opts.newEngine()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create evaluator", err)
		}
		r, err := newJournaledRunner(ctx, eng, st, logger)
		if err != nil {
			return err
		}

		for _, token := range tokens {
			report, err := r.Replay(ctx, token)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay batch %s", token), err)
			}
			batch := ReplayBatchResult{
				BatchToken:    token,
				Runs:          report.Runs,
				Matched:       report.Matched,
				Deterministic: report.OK(),
			}
			for _, m := range report.Mismatches {
				batch.Mismatches = append(batch.Mismatches, ReplayMismatch{
					RunID:    m.RunID,
					Seq:      m.Seq,
					Expected: m.Expected,
					Actual:   m.Actual,
				})
			}
			result.Batches = append(result.Batches, batch)
			if !batch.Deterministic {
				result.AllDeterministic = false
			}
		}
	}

	if opts.Format == "json" {
		if err := outputReplayJSON(cmd, result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result, opts.Verbose)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	status := "ok"
	if !result.AllDeterministic {
		status = "error"
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(CLIResponse{Status: status, Data: result})
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) {
	w := cmd.OutOrStdout()
	if result.TotalBatches == 0 {
		fmt.Fprintln(w, "No batches found in journal.")
		return
	}

	fmt.Fprintf(w, "Replayed %d batch(es)\n\n", result.TotalBatches)
	for _, b := range result.Batches {
		mark := "✓"
		if !b.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d/%d runs matched\n", mark, b.BatchToken, b.Matched, b.Runs)
		for _, m := range b.Mismatches {
			fmt.Fprintf(w, "    seq %d (%s)\n", m.Seq, m.RunID)
			if verbose {
				fmt.Fprintf(w, "      Expected: %s\n      Actual:   %s\n", compactJSON(m.Expected), compactJSON(m.Actual))
			}
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintln(w, "All batches deterministic")
	} else {
		fmt.Fprintln(w, "Determinism verification FAILED")
	}
}

// compactJSON renders an object on one line for text output.
func compactJSON(obj ir.Object) string {
	data, err := ir.MarshalValue(obj)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
