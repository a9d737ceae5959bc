package app

import (
	"context"
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/service/cache"
	"github.com/oshokin/tunestash/internal/utils"
)

// SaveOptions describes a bulk save started from the command line.
type SaveOptions struct {
	Source  string
	Quality string
	// IDs are song identifiers given as arguments.
	IDs []string
	// IDsFile is an optional file with one song identifier per line.
	IDsFile string
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// ExecuteSaveCommand caches the given songs for offline use and logs a summary.
func ExecuteSaveCommand(ctx context.Context, cfg *config.Config, opts SaveOptions) {
	songs, err := collectSongs(opts.IDs, opts.IDsFile)
	if err != nil {
		logger.Fatalf(ctx, "Failed to read song list: %v", err)
	}

	service, err := newService(cfg, nil)
	if err != nil {
		logger.Fatalf(ctx, "Failed to start: %v", err)
	}

	defer service.Close()

	progress := opts.Progress
	if logger.Level() > zap.InfoLevel {
		progress = nil
	}

	result, err := service.SaveAll(ctx, cache.SaveAllRequest{
		Source:     opts.Source,
		Quality:    opts.Quality,
		Songs:      songs,
		OnSongDone: newSaveProgress(ctx, progress, len(songs)),
	})
	if err != nil {
		logger.Fatalf(ctx, "Bulk save rejected: %v", err)
	}

	logSaveSummary(ctx, result)
}

// collectSongs merges identifiers from arguments and an optional file, keeping the first occurrence.
func collectSongs(ids []string, idsFile string) ([]cache.SongRef, error) {
	if idsFile != "" {
		fileIDs, err := utils.ReadUniqueLinesFromFile(idsFile)
		if err != nil {
			return nil, err
		}

		ids = append(ids, fileIDs...)
	}

	var (
		songs = make([]cache.SongRef, 0, len(ids))
		seen  = make(map[string]struct{}, len(ids))
	)

	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}

		seen[id] = struct{}{}
		songs = append(songs, cache.SongRef{ID: id})
	}

	return songs, nil
}

// newSaveProgress returns the per-song callback of a bulk save.
// It advances a progress bar on out and logs failures.
func newSaveProgress(ctx context.Context, out io.Writer, total int) func(cache.SaveDetail) {
	var bar *progressbar.ProgressBar

	if out != nil {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Saving"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionOnCompletion(func() {
				_, _ = io.WriteString(out, "\n")
			}),
		)
	}

	return func(detail cache.SaveDetail) {
		if detail.Status == cache.SaveStatusFailed {
			logger.Warnf(ctx, "Song %s (%s) failed: %s", detail.ID, detail.Name, detail.Error)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}
}

func logSaveSummary(ctx context.Context, result *cache.SaveAllResult) {
	var exists int

	for _, detail := range result.Details {
		if detail.Status == cache.SaveStatusExists {
			exists++
		}
	}

	logger.Infof(ctx, "Save finished: %d of %d songs available offline (%d already cached), %d failed",
		result.Success, result.Total, exists, result.Failed)
}
