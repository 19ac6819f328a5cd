package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benvon/twin-insights/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "twin-insights-configure",
		Short: "Operator tool for the Twin Insights API",
		Long:  "CLI tool for inspecting twin profiles, managing CORS and rate limit settings, and running a question session from the terminal",
	}

	rootCmd.AddCommand(commands.NewProfilesCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewAskCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
