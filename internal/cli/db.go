package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/store"
)

func (a *app) dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect SQLite store schema versions",
		Long: `Inspect the schema version of a SQLite issue store. Without a path the
configured store is used.

Examples:
  rocktalk db version ~/.rocktalk/issues.db
  rocktalk db check`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "version [db-path]",
			Short: "Show current DB schema version",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.reportDBVersion(args)
				return err
			},
		},
		&cobra.Command{
			Use:   "check [db-path]",
			Short: "Check if DB is compatible with this binary",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := a.reportDBVersion(args)
				if err != nil {
					return err
				}
				if version > store.DBSchemaVersion {
					return fmt.Errorf("INCOMPATIBLE: database is newer than this binary (schema %d, supported %d)",
						version, store.DBSchemaVersion)
				}
				fmt.Fprintf(a.out, "\nOK: database is compatible.\n")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) reportDBVersion(args []string) (int, error) {
	dbPath := a.cfg.StorePath
	if len(args) > 0 {
		dbPath = args[0]
	}
	if !store.IsSQLitePath(dbPath) {
		return 0, fmt.Errorf("%s is not a SQLite store (want a .db, .sqlite or .sqlite3 path)", dbPath)
	}

	db, err := store.OpenRawDB(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	version, err := store.ReadDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}

	fmt.Fprintf(a.out, "database: %s\n", dbPath)
	fmt.Fprintf(a.out, "schema version: %d\n", version)
	fmt.Fprintf(a.out, "binary supports: %d\n", store.DBSchemaVersion)
	return version, nil
}
