package cli

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Listener overrides Addr (for testing).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transformations over HTTP",
		Long: `Start an HTTP server exposing the engine.

  POST /v1/transform   {input, transforms, settings} -> result
  GET  /healthz

Request and response encodings follow Content-Type and Accept
(application/json, application/yaml, application/msgpack). Allowed CORS
origins and timeouts come from the server section of the config file.

Example:
  datadance serve --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (defaults to server.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.logger()

	eng, err := opts.newEngine()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create evaluator", err)
	}

	cfg := opts.Config.Server
	srv := server.New(eng,
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
		server.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout),
	)

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	if opts.Listener != nil {
		err = srv.Serve(ctx, opts.Listener)
	} else {
		addr := opts.Addr
		if addr == "" {
			addr = cfg.Addr
		}
		err = srv.ListenAndServe(ctx, addr)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
