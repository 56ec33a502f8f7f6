package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/codec"
	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/runner"
)

// TransformOptions holds flags for the transform command.
type TransformOptions struct {
	*RootOptions
	Doc     string
	Name    string
	Input   string
	Merge   string
	Codec   string
	Output  string
	Journal string
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Apply a document to one record",
		Long: `Apply a transform document to a single input record and print the result.

The record is read from --input (a .json, .yaml or .msgpack file) or from
stdin as JSON. The result is the merged output mapping, or an error object
such as {"error-102": "..."}; an error result exits with status 1.

Example:
  datadance transform --doc orders.cue --input order.json
  echo '{"price": 2, "qty": 3}' | datadance transform --doc ./docs --name orders --codec yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "document file or CUE package directory (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "document name when --doc holds several")
	cmd.Flags().StringVar(&opts.Input, "input", "-", "input record file, or - for stdin")
	cmd.Flags().StringVar(&opts.Merge, "merge", "", "override the document's merge method")
	cmd.Flags().StringVar(&opts.Codec, "codec", "json", fmt.Sprintf("result encoding (%s)", strings.Join(codec.Names(), "|")))
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal the run into this SQLite database")
	_ = cmd.MarkFlagRequired("doc")

	return cmd
}

func runTransform(opts *TransformOptions, cmd *cobra.Command) error {
	logger := opts.logger()

	out, err := codec.ForName(opts.Codec)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --codec", err)
	}

	docs, err := LoadDocuments(opts.Doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}
	doc, err := SelectDocument(docs, opts.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to select document", err)
	}
	if opts.Merge != "" {
		doc.Settings.MergeMethod = opts.Merge
	}

	input, err := readInputRecord(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	eng, err := opts.newEngine()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create evaluator", err)
	}

	ctx := cmd.Context()
	var result ir.Object
	if path := opts.journalPath(opts.Journal); path != "" {
		st, err := openJournal(path)
		if err != nil {
			return err
		}
		defer closeJournal(st, logger)

		r, err := newJournaledRunner(ctx, eng, st, logger)
		if err != nil {
			return err
		}
		batch, err := r.RunBatch(ctx, doc, []ir.Object{input})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to journal run", err)
		}
		run := batch.Runs[0]
		logger.Debug("run journaled", "run_id", run.ID, "batch", batch.Token, "seq", run.Seq)
		result = run.Result
	} else {
		res, _ := runner.New(eng, runner.WithLogger(logger)).Apply(ctx, doc, input)
		result = res.Wire()
	}

	data, err := out.Marshal(result)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode result", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.Output, data, out.Name() == "msgpack"); err != nil {
		return WrapExitError(ExitCommandError, "failed to write result", err)
	}

	if engine.IsErrorObject(result) {
		return NewExitError(ExitFailure, "transformation failed")
	}
	return nil
}

// readInputRecord decodes one record. Files are decoded by extension;
// stdin is JSON.
func readInputRecord(path string, stdin io.Reader) (ir.Object, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		return codec.DecodeObject(codec.JSON(), data)
	}

	c, err := codecForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return codec.DecodeObject(c, data)
}

// writeOutput writes data to path, or to w when path is empty. Text
// encodings get a trailing newline on w.
func writeOutput(w io.Writer, path string, data []byte, binary bool) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return &LoadError{Code: ErrCodeWriteFailed, Message: err.Error()}
		}
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if !binary && !bytes.HasSuffix(data, []byte("\n")) {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
