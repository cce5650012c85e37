package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/contactq/internal/addressbook"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Show one contact by id",
		Long: `Load a single contact with all of its details. The id is the lookup key
in the aggregated view and the numeric contact id with --raw.

Example:
  contactq load --db ./contacts.db lookup-ann
  contactq load --db ./contacts.db --raw 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runLoad(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	book, closeBook, err := openBook(opts, formatter)
	if err != nil {
		return err
	}
	defer closeBook()

	c, err := book.Load(cmd.Context(), id)
	switch {
	case errors.Is(err, addressbook.ErrInvalidID):
		return formatter.Fail(ExitCommandError, ErrCodeInvalidID, "invalid contact id", err)
	case errors.Is(err, addressbook.ErrNotFound):
		return formatter.Fail(ExitFailure, ErrCodeNotFound, "contact not found: "+id, err)
	case err != nil:
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to load contact", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(c)
	}
	return NewTableFormatter(opts.Registry).Render(formatter.Writer, []any{c})
}
