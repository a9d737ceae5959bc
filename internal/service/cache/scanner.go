package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/storage"
	"github.com/oshokin/tunestash/internal/utils"
)

// LibraryItem is a song available offline.
type LibraryItem struct {
	Platform  string `json:"platform"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	HasCover  bool   `json:"hasCover"`
	HasLyrics bool   `json:"hasLyrics"`
	Format    string `json:"format"`
	// Path is relative to the storage root and uses forward slashes.
	Path string `json:"path"`
}

// Scanner rebuilds the offline catalog from the cache tree.
type Scanner struct {
	resolver *storage.Resolver
}

// NewScanner creates a scanner over the tree of resolver.
func NewScanner(resolver *storage.Resolver) *Scanner {
	return &Scanner{resolver: resolver}
}

// Scan walks platform/artist/album/title directories and returns one item per
// title directory holding an audio file. A missing root yields an empty catalog.
// Unreadable subdirectories are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]LibraryItem, error) {
	items := make([]LibraryItem, 0)
	root := s.resolver.Root()

	platforms, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return items, nil
		}

		return nil, err
	}

	for _, platform := range directories(platforms) {
		for _, artist := range s.readDirs(ctx, root, platform) {
			for _, album := range s.readDirs(ctx, root, platform, artist) {
				for _, title := range s.readDirs(ctx, root, platform, artist, album) {
					if err = ctx.Err(); err != nil {
						return nil, err
					}

					item, ok := s.scanEntry(ctx, platform, artist, album, title)
					if ok {
						items = append(items, item)
					}
				}
			}
		}
	}

	return items, nil
}

func (s *Scanner) scanEntry(ctx context.Context, platform, artist, album, title string) (LibraryItem, bool) {
	dir := filepath.Join(s.resolver.Root(), platform, artist, album, title)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf(ctx, "Skipping unreadable directory '%s': %v", dir, err)

		return LibraryItem{}, false
	}

	var (
		baseName  = utils.SanitizePathSegment(title)
		preferred string
		fallback  string
		files     = make(map[string]struct{}, len(entries))
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		files[name] = struct{}{}

		if !storage.IsAudioFile(name) {
			continue
		}

		if preferred == "" && strings.HasPrefix(name, baseName) {
			preferred = name
		}

		if fallback == "" {
			fallback = name
		}
	}

	audioFile := preferred
	if audioFile == "" {
		audioFile = fallback
	}

	if audioFile == "" {
		return LibraryItem{}, false
	}

	_, hasCover := files[baseName+constants.ExtensionJPG]
	_, hasLyrics := files[baseName+constants.ExtensionLRC]

	return LibraryItem{
		Platform:  platform,
		Artist:    artist,
		Album:     album,
		Name:      title,
		ID:        strings.Join([]string{"local", platform, artist, album, title}, "_"),
		HasCover:  hasCover,
		HasLyrics: hasLyrics,
		Format:    strings.ToLower(strings.TrimPrefix(filepath.Ext(audioFile), ".")),
		Path:      s.resolver.Rel(filepath.Join(dir, audioFile)),
	}, true
}

func (s *Scanner) readDirs(ctx context.Context, elem ...string) []string {
	dir := filepath.Join(elem...)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf(ctx, "Skipping unreadable directory '%s': %v", dir, err)

		return nil
	}

	return directories(entries)
}

// directories returns the names of the directory entries, in the lexical order os.ReadDir yields.
func directories(entries []os.DirEntry) []string {
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names
}
