package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tunestash/internal/app"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the songs available offline.",
	Long: `Walks the cache directory and prints every cached song with its format
and whether lyrics and a cover were saved next to it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		asJSON, _ := cmd.Flags().GetBool("json")

		app.ExecuteScanCommand(cmd.Context(), appConfig, cmd.OutOrStdout(), asJSON)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	scanCmd.Flags().Bool("json", false, "print the library as JSON.")

	rootCmd.AddCommand(scanCmd)
}
