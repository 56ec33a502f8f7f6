package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/runner"
	"github.com/yakshavingxyz/datadance/internal/store"
)

// openJournal opens the run journal at path.
func openJournal(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

// closeJournal closes st, logging rather than returning the error.
func closeJournal(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing journal", "error", err)
	}
}

// newJournaledRunner builds a runner that journals into st and continues
// the logical clock from the last journaled seq.
func newJournaledRunner(ctx context.Context, eng *engine.Engine, st *store.Store, logger *slog.Logger, extra ...runner.Option) (*runner.Runner, error) {
	last, err := st.LastSeq(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	opts := []runner.Option{
		runner.WithJournal(st),
		runner.WithClock(runner.NewClockAt(last)),
		runner.WithLogger(logger),
	}
	return runner.New(eng, append(opts, extra...)...), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, derived
// from the command's context when one is set (tests).
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
