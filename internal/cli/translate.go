package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/contactq/internal/dsl"
	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/translate"
)

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <query>",
		Short: "Show the native query a contact query translates to",
		Long: `Parse a contact query and print the descriptor the translator folds it
into: collection, selection, parameters, sort, paging, and whatever is left
for in-memory evaluation. Nothing is executed.

Example:
  contactq translate 'contacts.where(c => c.LastName == "Lee").orderBy(c => c.DisplayName).take(5)'
  contactq translate --raw --format json 'contacts.count(c => c.Starred)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, strings.Join(args, " "), cmd)
		},
	}

	return cmd
}

func runTranslate(opts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tree, err := parseQuery(opts, src)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeParse, "invalid query", err)
	}
	formatter.VerboseLog("parsed: %s", expr.Format(tree))

	d, err := translate.New(opts.Registry, opts.mode()).Translate(tree)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeTranslate, "cannot translate query", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(d.View())
	}
	_, err = fmt.Fprint(formatter.Writer, d.String())
	return err
}

// parseQuery parses src against the command's registry.
func parseQuery(opts *RootOptions, src string) (expr.Expr, error) {
	return dsl.New(opts.Registry).Parse(src)
}
