package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/contactq/internal/store"
)

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Database string `json:"database"`
	Contacts int    `json:"contacts"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load contacts from a YAML fixture into a database",
		Long: `Validate a YAML contacts fixture and insert its contacts into a SQLite
database, creating the database if it does not exist. All contacts are
inserted in one transaction.

Example:
  contactq seed --db ./contacts.db ./contacts.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	fixture, err := store.LoadFixture(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFixture, "invalid fixture", err)
	}
	formatter.VerboseLog("Fixture %s holds %d contact(s)", path, len(fixture.Contacts))

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.Logger.Error("error closing database", "error", closeErr)
		}
	}()

	n, err := st.Seed(cmd.Context(), fixture)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFixture, "failed to seed database", err)
	}
	opts.Logger.Info("database seeded", "path", opts.DB, "contacts", n)

	if formatter.IsJSON() {
		return formatter.Success(SeedResult{Database: opts.DB, Contacts: n})
	}
	formatter.Done("Seeded %d contact(s) into %s", n, opts.DB)
	return nil
}
