// Package cli implements the datadance command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/config"
	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/evaluator"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is resolved in PersistentPreRunE.
	Config config.Config

	// Logger writes to the command's stderr. Set in PersistentPreRunE.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the datadance CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "datadance",
		Short: "datadance - declarative field transformations",
		Long: `Apply declarative transform documents to records.

A transform document is a list of single-key rules, each binding a field to
an expression (or to a nested group of rules) evaluated against the input
record and the values derived so far. Documents are written in CUE, JSON or
YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = cfg
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log, opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to configure logging", err)
			}
			opts.Logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./datadance.yaml if present)")

	cmd.AddCommand(NewTransformCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds the slog logger selected by configuration. --verbose
// forces debug level.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), nil
}

// logger returns the configured logger, or a discarding one when the
// command runs outside the root (tests constructing subcommands directly).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngine builds a CUE-backed engine from the evaluator configuration.
func (o *RootOptions) newEngine() (*engine.Engine, error) {
	var evalOpts []evaluator.Option
	if o.Config.Evaluator.Prelude != "" {
		evalOpts = append(evalOpts, evaluator.WithPrelude(o.Config.Evaluator.Prelude))
	}
	eval, err := evaluator.NewCUE(evalOpts...)
	if err != nil {
		return nil, err
	}
	return engine.New(eval, engine.WithLogger(o.logger())), nil
}

// journalPath returns flag if set, otherwise the configured journal path.
func (o *RootOptions) journalPath(flag string) string {
	if flag != "" {
		return flag
	}
	return o.Config.Journal.Path
}
