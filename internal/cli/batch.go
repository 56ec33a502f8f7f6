package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/runner"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Doc     string
	Name    string
	Records string
	Journal string
	Strict  bool

	// TokenGenerator overrides the batch token generator (for testing).
	// If nil, defaults to runner.UUIDv7Generator.
	TokenGenerator runner.TokenGenerator
}

// BatchRun is one record's outcome in JSON output.
type BatchRun struct {
	ID     string    `json:"id"`
	Seq    int64     `json:"seq"`
	Result ir.Object `json:"result"`
}

// BatchOutput is the JSON output of the batch command.
type BatchOutput struct {
	BatchToken   string     `json:"batch_token"`
	DocumentHash string     `json:"document_hash"`
	Runs         []BatchRun `json:"runs"`
	Errors       int        `json:"errors"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Apply a document to every record of a file",
		Long: `Apply a transform document to each record of a records file.

Every record is transformed with a fresh context; a failing record does not
affect the others. Results are printed one JSON object per line in record
order. With --journal (or journal.path in the config file) every run is
recorded for later replay and trace.

Example:
  datadance batch --doc orders.cue --records orders.jsonl
  datadance batch --doc ./docs --name orders --records orders.yaml --journal runs.db --strict`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "document file or CUE package directory (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "document name when --doc holds several")
	cmd.Flags().StringVar(&opts.Records, "records", "", "records file (.jsonl, .json, .yaml) or - for stdin (required)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal runs into this SQLite database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 1 when any record fails")
	_ = cmd.MarkFlagRequired("doc")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runBatch(opts *BatchOptions, cmd *cobra.Command) error {
	logger := opts.logger()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs, err := LoadDocuments(opts.Doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}
	doc, err := SelectDocument(docs, opts.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to select document", err)
	}
	records, err := LoadRecords(opts.Records, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load records", err)
	}
	formatter.VerboseLog("Loaded %d records for document %s", len(records), doc.Name)

	eng, err := opts.newEngine()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create evaluator", err)
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	var extra []runner.Option
	if opts.TokenGenerator != nil {
		extra = append(extra, runner.WithTokenGenerator(opts.TokenGenerator))
	}

	var r *runner.Runner
	if path := opts.journalPath(opts.Journal); path != "" {
		st, err := openJournal(path)
		if err != nil {
			return err
		}
		defer closeJournal(st, logger)

		r, err = newJournaledRunner(ctx, eng, st, logger, extra...)
		if err != nil {
			return err
		}
	} else {
		r = runner.New(eng, append([]runner.Option{runner.WithLogger(logger)}, extra...)...)
	}

	batch, err := r.RunBatch(ctx, doc, records)
	if err != nil {
		return WrapExitError(ExitCommandError, "batch aborted", err)
	}

	if opts.Format == "json" {
		output := BatchOutput{
			BatchToken:   batch.Token,
			DocumentHash: batch.DocumentHash,
			Runs:         make([]BatchRun, len(batch.Runs)),
			Errors:       batch.Errors(),
		}
		for i, run := range batch.Runs {
			output.Runs[i] = BatchRun{ID: run.ID, Seq: run.Seq, Result: run.Result}
		}
		if err := formatter.Success(output); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, run := range batch.Runs {
			line, err := ir.MarshalValue(run.Result)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode result", err)
			}
			fmt.Fprintln(w, string(line))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "batch %s: %d records, %d errors\n", batch.Token, len(batch.Runs), batch.Errors())
	}

	if opts.Strict && batch.Errors() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d records failed", batch.Errors(), len(batch.Runs)))
	}
	return nil
}
