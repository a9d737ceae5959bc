package cache

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/utils"
)

// PlatformStats summarizes the cached songs of one platform.
type PlatformStats struct {
	Songs  int   `json:"songs"`
	Lyrics int   `json:"lyrics"`
	Size   int64 `json:"size"`
}

// StorageStats summarizes the whole cache tree.
type StorageStats struct {
	TotalSongs  int                      `json:"totalSongs"`
	TotalLyrics int                      `json:"totalLyrics"`
	TotalSize   int64                    `json:"totalSize"`
	Platforms   map[string]PlatformStats `json:"platforms"`
}

// Stats counts songs and lyrics from a scan and sums the size of every file in the tree.
func (s *Scanner) Stats(ctx context.Context) (*StorageStats, error) {
	items, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StorageStats{Platforms: make(map[string]PlatformStats)}

	for _, item := range items {
		platform := stats.Platforms[item.Platform]
		platform.Songs++
		stats.TotalSongs++

		if item.HasLyrics {
			platform.Lyrics++
			stats.TotalLyrics++
		}

		stats.Platforms[item.Platform] = platform
	}

	for name, platform := range stats.Platforms {
		platform.Size = treeSize(ctx, filepath.Join(s.resolver.Root(), name))
		stats.Platforms[name] = platform
	}

	stats.TotalSize = treeSize(ctx, s.resolver.Root())

	logger.Debugf(ctx, "Storage holds %d songs, %d lyrics, %s",
		stats.TotalSongs, stats.TotalLyrics, humanize.Bytes(utils.SafeInt64ToUint64(stats.TotalSize)))

	return stats, nil
}

// treeSize sums regular file sizes below root, skipping what cannot be read.
func treeSize(ctx context.Context, root string) int64 {
	var size int64

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			logger.Warnf(ctx, "Skipping '%s' while measuring storage: %v", path, err)

			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil //nolint:nilerr // A file removed mid-walk does not count.
		}

		size += info.Size()

		return nil
	})
	if err != nil {
		logger.Warnf(ctx, "Failed to measure '%s': %v", root, err)
	}

	return size
}
