package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/models"
)

// NewCorsCmd creates the cors configuration command with list, set and clear subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the browser origins allowed to call the API (stored in database).",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	cmd.AddCommand(newCorsClearCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			out := cmd.OutOrStdout()
			c, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
			if errors.Is(err, database.ErrCorsConfigNotFound) {
				fmt.Fprintln(out, "No CORS configuration in database; servers fall back to FRONTEND_URL.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "CORS configuration (updated %s):\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
			for _, origin := range database.SplitOrigins(c.AllowedOrigins) {
				fmt.Fprintf(out, "  Origin: %s\n", origin)
			}
			fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
			fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
			return nil
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var (
		origins    string
		allowCreds bool
		maxAge     int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Replace the allowed origins (comma-separated). Running servers reload within a minute.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := database.ParseOrigins(origins); err != nil {
				return fmt.Errorf("--origins: %w", err)
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			c := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CORS configuration updated: %s\n", c.AllowedOrigins)
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", false, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}

func newCorsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored CORS configuration",
		Long:  "Delete the stored origins so running servers fall back to FRONTEND_URL on their next reload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			removed, err := database.NewCorsConfigRepository(db).Clear(cmd.Context())
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No CORS configuration was stored.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration cleared; servers fall back to FRONTEND_URL.")
			return nil
		},
	}
}
