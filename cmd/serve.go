package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tunestash/internal/app"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default command).",
	Long: `Serves the playback proxy, the task list, the local library and the cached
files over HTTP until interrupted.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) {
	app.ExecuteServeCommand(cmd.Context(), appConfig)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(
		"listen",
		"l",
		"",
		"address the HTTP server listens on, for example :3000.")
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	addServeFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}
