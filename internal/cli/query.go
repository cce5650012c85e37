package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/contactq/internal/addressbook"
	"github.com/roach88/contactq/internal/eval"
	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/store"
	"github.com/roach88/contactq/internal/translate"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a contact query against a database",
		Long: `Parse, translate and execute a contact query against a SQLite contacts
database. Supported operators run natively; the rest are evaluated in memory
over the native rows.

Example:
  contactq query --db ./contacts.db 'contacts.where(c => c.Starred == true).orderBy(c => c.DisplayName)'
  contactq query --db ./contacts.db 'contacts.selectMany(c => c.Phones).select(p => p.Number)'
  contactq query --db ./contacts.db 'contacts.count(c => c.Emails.any(e => e.Address.endsWith(".org")))'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, strings.Join(args, " "), cmd)
		},
	}

	return cmd
}

func runQuery(opts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tree, err := parseQuery(opts, src)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeParse, "invalid query", err)
	}

	book, closeBook, err := openBook(opts, formatter)
	if err != nil {
		return err
	}
	defer closeBook()

	opts.Logger.Debug("running query", "query", expr.Format(tree), "mode", opts.mode().String())
	result, err := book.Query(cmd.Context(), tree)
	if err != nil {
		return queryFailure(formatter, err)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return renderResult(opts, formatter, result)
}

// openBook opens the configured database, which must exist, and wraps it in
// an address book. The returned func closes the store.
func openBook(opts *RootOptions, formatter *OutputFormatter) (*addressbook.AddressBook, func(), error) {
	if _, err := os.Stat(opts.DB); err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), err)
	}

	opts.Logger.Debug("opening database", "path", opts.DB)
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}

	book := addressbook.New(st, opts.Registry,
		addressbook.WithLogger(opts.Logger),
		addressbook.WithPreferAggregation(!opts.Raw),
	)
	return book, func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.Logger.Error("error closing database", "error", closeErr)
		}
	}, nil
}

// queryFailure maps an execution error to its exit code and error code.
func queryFailure(formatter *OutputFormatter, err error) error {
	var evalErr *eval.Error
	switch {
	case errors.As(err, &evalErr):
		return formatter.Fail(ExitFailure, ErrCodeEvaluate, "query failed", err)
	case translate.IsUnsupported(err):
		return formatter.Fail(ExitCommandError, ErrCodeTranslate, "cannot translate query", err)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeStore, "query failed", err)
	}
}

// renderResult prints sequences as tables and everything else on one line.
func renderResult(opts *RootOptions, formatter *OutputFormatter, result any) error {
	tf := NewTableFormatter(opts.Registry)
	switch r := result.(type) {
	case []any:
		return tf.Render(formatter.Writer, r)
	case nil:
		formatter.Note("no result")
		return nil
	case int, bool:
		return formatter.Success(r)
	default:
		return tf.Render(formatter.Writer, []any{r})
	}
}
