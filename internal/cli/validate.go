package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/compiler"
)

// DocumentError is a validation error attributed to a document.
type DocumentError struct {
	Document string `json:"document"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool            `json:"valid"`
	Documents int             `json:"documents"`
	Errors    []DocumentError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file|dir>",
		Short: "Check documents without running them",
		Long: `Check transform documents statically.

Reports malformed rules, empty field names, expressions that do not parse,
empty groups and missing or unknown merge methods: everything that would
otherwise only surface as an error object at transform time.

Exit codes:
  0 - All documents valid
  1 - Validation errors found
  2 - Documents could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs, err := LoadDocuments(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load documents", err)
	}

	result := ValidationResult{Valid: true, Documents: len(docs)}
	for i := range docs {
		formatter.VerboseLog("Validating document: %s", docs[i].Name)
		for _, verr := range compiler.Validate(&docs[i]) {
			result.Errors = append(result.Errors, DocumentError{Document: docs[i].Name, ValidationError: verr})
		}
	}
	result.Valid = len(result.Errors) == 0

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %d document(s) valid\n", result.Documents)
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "%s: %s\n  %s: %s\n\n", e.Document, e.Field, e.Code, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
