package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/models"
)

// NewProfilesCmd creates the profiles command with list and show subcommands
func NewProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect digital twin profiles",
		Long:  "Show which active profiles would ground answers for a product (read-only).",
	}
	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesShowCmd())
	return cmd
}

func newProfilesListCmd() *cobra.Command {
	var (
		product        string
		limit          int
		scanWindow     int
		fields         string
		fallbackActive bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the profiles selected for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParseProduct(product)
			if err != nil {
				return fmt.Errorf("%w: %q", err, product)
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			repo := database.NewProfileRepository(db,
				database.WithRelevanceFields(database.ParseRelevanceFields(fields)),
				database.WithScanWindow(scanWindow),
				database.WithFallbackToAnyActive(fallbackActive),
			)
			profiles, err := repo.FetchActiveProfiles(cmd.Context(), p, limit)
			if errors.Is(err, database.ErrNoProfilesAvailable) {
				fmt.Fprintf(cmd.OutOrStdout(), "No active profiles relevant to %s\n", p.DisplayName())
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch profiles: %w", err)
			}
			printProfileList(cmd.OutOrStdout(), p, profiles)
			return nil
		},
	}
	cmd.Flags().StringVar(&product, "product", string(models.ProductPickles), "Product category (pickles, overnight-oats)")
	cmd.Flags().IntVar(&limit, "limit", database.DefaultProfileLimit, "Maximum profiles to return")
	cmd.Flags().IntVar(&scanWindow, "scan-window", database.DefaultProfileScanWindow, "Active profiles examined before filtering")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated relevance fields (default: built-in list)")
	cmd.Flags().BoolVar(&fallbackActive, "fallback-any-active", false, "Use any active profiles when none are relevant")
	return cmd
}

func newProfilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <profile-id>",
		Short: "Show one profile as it appears in prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			profile, err := database.NewProfileRepository(db).GetByID(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("get profile: %w", err)
			}
			if profile == nil {
				return fmt.Errorf("profile %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) active=%v\n\n", profile.PersonName, profile.ID, profile.Active)
			fmt.Fprint(cmd.OutOrStdout(), insights.FormatProfiles([]*models.Profile{profile}))
			return nil
		},
	}
}

func printProfileList(w io.Writer, product models.Product, profiles []*models.Profile) {
	fmt.Fprintf(w, "%d profile(s) for %s:\n", len(profiles), product.DisplayName())
	for _, p := range profiles {
		fmt.Fprintf(w, "  - %s  %s\n", p.ID, p.PersonName)
	}
}
