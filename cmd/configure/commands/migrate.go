package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/twin-insights/internal/database"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			applied, err := database.RunMigrations(cmd.Context(), db, dir)
			for _, m := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied migration %03d: %s\n", m.Version, m.Name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Directory containing numbered .sql files")
	return cmd
}
