package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/middleware"
	"github.com/benvon/twin-insights/internal/models"
)

// NewRatelimitCmd creates the ratelimit command. The stored rate applies to
// the query and session routes and is picked up by running servers within a minute.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the insight route rate limit",
		Long:  "List or update the per-client rate limit for insight routes (e.g. 20-M, 100-H). Stored in database.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the current rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			c, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintf(out, "No rate limit stored; servers use QUERY_RATE_LIMIT or %s.\n", middleware.DefaultQueryRate)
				return nil
			}
			fmt.Fprintf(out, "Rate limit: %s (updated %s)\n", c.Rate, c.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if err := validateRate(rate); err != nil {
				return err
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.NewRatelimitConfigRepository(db).Set(cmd.Context(), &models.RatelimitConfig{Rate: rate}); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rate limit updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate in limiter format, e.g. 20-M (required)")
	return cmd
}

// validateRate rejects values the server would ignore on reload
func validateRate(rate string) error {
	if rate == "" {
		return fmt.Errorf("--rate is required (e.g. 20-M, 100-H)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return nil
}
