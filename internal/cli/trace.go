package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Dump    bool
}

// TraceResult is the JSON output of the trace command.
type TraceResult struct {
	RunID         string      `json:"run_id"`
	BatchToken    string      `json:"batch_token"`
	Seq           int64       `json:"seq"`
	EngineVersion string      `json:"engine_version"`
	DocumentHash  string      `json:"document_hash"`
	Document      ir.Document `json:"document"`
	Input         ir.Object   `json:"input"`
	Derived       ir.Object   `json:"derived"`
	Result        ir.Object   `json:"result"`
	ErrorCode     string      `json:"error_code,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show a journaled run",
		Long: `Show everything the journal recorded for one run: the document that
was applied, the input record, the derived state after the run and the
result.

--dump prints the raw journal row with Go types instead.

Examples:
  datadance trace --journal runs.db 3f5c...
  datadance trace --journal runs.db 3f5c... --format json
  datadance trace --journal runs.db 3f5c... --dump`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (defaults to journal.path)")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "dump the raw journal row")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
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
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Dump {
		dumpRun(cmd.OutOrStdout(), run)
		return nil
	}

	doc, err := st.ReadDocument(ctx, run.DocumentHash)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	result := TraceResult{
		RunID:         run.ID,
		BatchToken:    run.BatchToken,
		Seq:           run.Seq,
		EngineVersion: run.EngineVersion,
		DocumentHash:  run.DocumentHash,
		Document:      doc,
		Input:         run.Input,
		Derived:       run.Derived,
		Result:        run.Result,
		ErrorCode:     run.ErrorCode,
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	outputTraceText(cmd.OutOrStdout(), result)
	return nil
}

// dumpRun prints run with go-spew, keys sorted and without pointer
// addresses so the output is stable.
func dumpRun(w io.Writer, run store.Run) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		SortKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	cfg.Fdump(w, run)
}

func outputTraceText(w io.Writer, r TraceResult) {
	mark := "✓"
	if r.ErrorCode != "" {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s Run %s\n", mark, r.RunID)
	fmt.Fprintf(w, "  batch:    %s (seq %d)\n", r.BatchToken, r.Seq)
	fmt.Fprintf(w, "  document: %s (%s)\n", r.Document.Name, r.DocumentHash)
	fmt.Fprintf(w, "  engine:   %s\n", r.EngineVersion)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Input:\n  %s\n", compactJSON(r.Input))
	fmt.Fprintf(w, "Derived:\n  %s\n", compactJSON(r.Derived))
	fmt.Fprintf(w, "Result:\n  %s\n", compactJSON(r.Result))
	if r.ErrorCode != "" {
		fmt.Fprintf(w, "Error code: %s\n", r.ErrorCode)
	}
}
