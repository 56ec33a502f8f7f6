package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Journal    string
	BatchToken string
	Document   string
	ErrorCode  string
	Failed     bool
	Limit      int
}

// RunSummary is one row of the runs command output.
type RunSummary struct {
	ID           string `json:"id"`
	BatchToken   string `json:"batch_token"`
	Seq          int64  `json:"seq"`
	DocumentHash string `json:"document_hash"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs",
		Long: `List journaled runs in seq order, optionally filtered by batch,
document hash or error code. Pass a listed ID to trace for details.

Examples:
  datadance runs --journal runs.db --batch 01928c4e-...
  datadance runs --journal runs.db --failed
  datadance runs --journal runs.db --error error-102 --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (defaults to journal.path)")
	cmd.Flags().StringVar(&opts.BatchToken, "batch", "", "only runs of this batch")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only runs of this document hash")
	cmd.Flags().StringVar(&opts.ErrorCode, "error", "", "only runs that failed with this code")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only runs that failed")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs (0 = all)")

	return cmd
}

// runQuery builds the journal query selected by the flags.
func (o *RunsOptions) runQuery() store.RunQuery {
	var preds []store.Predicate
	if o.BatchToken != "" {
		preds = append(preds, store.ByBatch(o.BatchToken))
	}
	if o.Document != "" {
		preds = append(preds, store.ByDocument(o.Document))
	}
	if o.ErrorCode != "" {
		preds = append(preds, store.ByErrorCode(o.ErrorCode))
	}
	if o.Failed {
		preds = append(preds, store.Failed())
	}

	q := store.RunQuery{Limit: o.Limit}
	if len(preds) > 0 {
		q.Filter = store.And{Predicates: preds}
	}
	return q
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
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

	runs, err := st.FindRuns(cmd.Context(), opts.runQuery())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, run := range runs {
		summaries[i] = RunSummary{
			ID:           run.ID,
			BatchToken:   run.BatchToken,
			Seq:          run.Seq,
			DocumentHash: run.DocumentHash,
			ErrorCode:    run.ErrorCode,
		}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, s := range summaries {
		status := "ok"
		if s.ErrorCode != "" {
			status = s.ErrorCode
		}
		fmt.Fprintf(w, "%6d  %s  %s  %s\n", s.Seq, s.ID, s.BatchToken, status)
	}
	return nil
}
