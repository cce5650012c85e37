package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/contactq/internal/config"
	"github.com/roach88/contactq/internal/schema"
)

// RootOptions holds global flags for all commands. After the persistent
// pre-run they hold the resolved configuration.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DB         string
	Raw        bool

	Logger   *slog.Logger
	Registry *schema.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// NewRootCommand creates the root command for the contactq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Registry: schema.NewRegistry()}

	cmd := &cobra.Command{
		Use:   "contactq",
		Short: "contactq - query contacts with pushdown to SQLite",
		Long: `Translate LINQ-style contact queries into native SQLite queries and run them.

Queries are method chains rooted at the contact collection:

  contacts.where(c => c.FirstName == "Ann" && c.Emails.any()).orderBy(c => c.LastName).take(5)

Settings come from flags, CONTACTQ_* environment variables, and contactq.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, config.KeyVerbose, "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, config.KeyFormat, "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./contactq.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DB, config.KeyDB, "contacts.db", "path to SQLite contacts database")
	cmd.PersistentFlags().BoolVar(&opts.Raw, config.KeyRaw, false, "query raw contacts instead of the aggregated view")

	// Add subcommands
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve merges config file and environment into opts and installs the
// logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}
	o.Verbose = cfg.Verbose
	o.Format = cfg.Format
	o.DB = cfg.DB
	o.Raw = cfg.Raw
	o.Logger = newLogger(cmd.ErrOrStderr(), o.Verbose)

	if cfg.File != "" {
		o.Logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// newLogger returns a text logger on w at info, or debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// formatter returns an output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// mode is the aggregation mode selected by --raw.
func (o *RootOptions) mode() schema.Mode {
	return schema.ModeFor(!o.Raw)
}
