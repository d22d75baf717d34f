package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/documind-auditor/internal/bootstrap"
	"github.com/kirillkom/documind-auditor/internal/config"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
	"github.com/kirillkom/documind-auditor/internal/observability/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	open SessionOpener
}

// SessionOpener starts a session for one command; the returned func releases it.
type SessionOpener func(ctx context.Context) (ports.Session, func(), error)

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the auditctl command backed by the local state directory.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openBootstrapSession)
}

func newRootCommand(open SessionOpener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "auditctl",
		Short: "DocuMind document auditor",
		Long:  "Audit documents against the review rubric, manage the audit history and the reviewer profile.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := config.Load().LogLevel
			if opts.Verbose {
				level = "debug"
			}
			slog.SetDefault(logging.NewTextLogger(cmd.ErrOrStderr(), level))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewCriteriaCommand(opts))

	return cmd
}

func openBootstrapSession(ctx context.Context) (ports.Session, func(), error) {
	app, err := bootstrap.New(ctx, config.Load(), bootstrap.Options{Service: "cli", PublishEvents: true})
	if err != nil {
		return nil, nil, err
	}
	return app.Session, app.Close, nil
}

// withSession opens the session, runs fn, and releases the session.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ports.Session) error) error {
	session, closeFn, err := opts.open(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "start session", err)
	}
	defer closeFn()
	return fn(session)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
