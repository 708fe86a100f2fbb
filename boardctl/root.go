package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventdeck/eventdeck-go/internal/repo/backend"
)

const (
	exitFailure      = 1 // invariant violations found
	exitCommandError = 2 // bad flags, unreachable store
)

var validFormats = []string{"text", "json"}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitCommandError
}

type rootOptions struct {
	Verbose bool
	Format  string
	Timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "boardctl",
		Short: "Administer event boards",
		Long: `Administer the event board store.

The database is selected with DATABASE_DRIVER (postgres|sqlite) and the
same DATABASE_* / SQLITE_* variables board-api reads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return withCode(exitCommandError, fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats))
			}
			if opts.Timeout <= 0 {
				return withCode(exitCommandError, errors.New("--timeout must be positive"))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", time.Minute, "overall command timeout")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newRepairCommand(opts))

	return cmd
}

// session is the per-invocation state shared by subcommands.
type session struct {
	opts    *rootOptions
	logger  *slog.Logger
	out     io.Writer
	backend backend.Backend
}

// openSession opens the configured store. The caller must call close.
func openSession(cmd *cobra.Command, opts *rootOptions) (context.Context, *session, func(), error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	b, err := backend.Open(ctx)
	if err != nil {
		cancel()
		return nil, nil, nil, withCode(exitCommandError, fmt.Errorf("open store: %w", err))
	}
	logger.Debug("store opened", "driver", b.Driver)

	s := &session{opts: opts, logger: logger, out: cmd.OutOrStdout(), backend: b}
	closeFn := func() {
		if err := b.Store.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
		cancel()
	}
	return ctx, s, closeFn, nil
}

// emit writes v as JSON in json mode, otherwise the text lines.
func (s *session) emit(v any, lines ...string) error {
	if s.opts.Format == "json" {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return err
		}
	}
	return nil
}
