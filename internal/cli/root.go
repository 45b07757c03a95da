package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/store"
)

// DefaultDatabase is the SQLite file used when neither --db nor the
// config file names one.
const DefaultDatabase = "turnstile.db"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string   // "json" | "text"
	Database string   // SQLite path
	Config   string   // optional YAML config file
	As       []string // signing principals

	config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the turnstile CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "turnstile",
		Short: "Turnstile - event ticket ledger",
		Long: `A ledger for event tickets: sales with escrowed proceeds, check-in
with delegated door staff, and proof-of-attendance credentials.

Callers are named with --as (repeat for co-signers). This is a local
operator tool: it trusts its flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Config != "" {
				cfg, err := LoadConfig(opts.Config)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				opts.config = *cfg
			}
			if f := cmd.Flag("db"); (f == nil || !f.Changed) && opts.config.Database != "" {
				opts.Database = opts.config.Database
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringArrayVar(&opts.As, "as", nil, "signing principal (repeatable)")

	cmd.AddCommand(NewEventCommand(opts))
	cmd.AddCommand(NewCollaboratorCommand(opts))
	cmd.AddCommand(NewClassCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewFundCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewCheckInCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// formatter builds the command's output formatter.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger builds a text logger at the configured level, or debug with
// --verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(o.config.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signers is the --as set.
func (o *RootOptions) signers() identity.Signers {
	return identity.Of(o.As...)
}

// actor is the first --as principal, the default party for commands
// that act on someone's behalf.
func (o *RootOptions) actor() identity.Principal {
	if len(o.As) == 0 {
		return ""
	}
	return identity.Principal(o.As[0])
}

// session is an open database with a ledger over it.
type session struct {
	store  *store.Store
	ledger *ledger.Ledger
	log    *slog.Logger
}

// open opens the database and builds a ledger that journals into it and
// publishes metadata to the log.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	log := o.logger(cmd.ErrOrStderr())
	log.Debug("opening database", "path", o.Database)

	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	l := ledger.New(st,
		ledger.WithLogger(log),
		ledger.WithJournal(st),
		ledger.WithPublisher(metadata.Logger{Log: log}),
	)
	return &session{store: st, ledger: l, log: log}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withSession runs fn against an open session and closes it afterwards.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(*session, *OutputFormatter) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s, o.formatter(cmd))
}
