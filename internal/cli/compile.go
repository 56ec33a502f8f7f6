package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledDocument is one entry of the compile output.
type CompiledDocument struct {
	Hash     string      `json:"hash"`
	Document ir.Document `json:"document"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file|dir>",
		Short: "Compile documents to canonical JSON",
		Long: `Compile CUE, JSON or YAML transform documents to their JSON form.

Each document is printed with its content hash, the identity under which
the journal records it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs, err := LoadDocuments(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load documents", err)
	}

	compiled := make([]CompiledDocument, len(docs))
	for i, doc := range docs {
		hash, err := ir.DocumentHash(doc)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to hash document %s", doc.Name), err)
		}
		compiled[i] = CompiledDocument{Hash: hash, Document: doc}
		formatter.VerboseLog("Compiled %s (%s)", doc.Name, hash)
	}

	data, err := json.MarshalIndent(compiled, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode documents", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.Output, data, false); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if opts.Output != "" && formatter.Format == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Compiled %d document(s) to %s\n", len(compiled), opts.Output)
	}
	return nil
}
