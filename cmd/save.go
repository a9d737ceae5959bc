package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tunestash/internal/app"
	"github.com/oshokin/tunestash/internal/service/cache"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var saveCmd = &cobra.Command{
	Use:   "save --source {platform} [flags] {song ids}",
	Short: "Save songs for offline playback.",
	Long: `Downloads songs, their lyrics and covers into the cache without playing them.
Songs that are already cached are skipped.

Example:
  tunestash save --source netease --quality flac 1901371647 1974443814
  tunestash save --source kuwo --file ids.txt`,
	Run: func(cmd *cobra.Command, ids []string) {
		flags := cmd.Flags()

		source, _ := flags.GetString("source")
		quality, _ := flags.GetString("quality")
		idsFile, _ := flags.GetString("file")

		app.ExecuteSaveCommand(cmd.Context(), appConfig, app.SaveOptions{
			Source:   source,
			Quality:  quality,
			IDs:      ids,
			IDsFile:  idsFile,
			Progress: cmd.ErrOrStderr(),
		})
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	saveCmdFlags := saveCmd.Flags()

	saveCmdFlags.String("source", "", "platform the songs come from, for example netease, kuwo, qq.")
	saveCmdFlags.StringP("quality", "q", cache.DefaultBulkQuality, "audio quality: 128k, 320k, flac, flac24bit.")
	saveCmdFlags.StringP("file", "f", "", "file with one song id per line.")

	_ = saveCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(saveCmd)
}
