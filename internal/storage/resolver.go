package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/utils"
)

// Resolver computes cache paths below a storage root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the storage root.
func (r *Resolver) Root() string {
	return r.root
}

// Dir returns the cache entry directory of key.
func (r *Resolver) Dir(key AssetKey) string {
	return filepath.Join(r.root,
		utils.SanitizePathSegment(key.Platform),
		utils.SanitizePathSegment(key.Artist),
		utils.SanitizePathSegment(key.Album),
		utils.SanitizePathSegment(key.Title))
}

// Path returns the file path of the kind asset of key without touching the filesystem.
func (r *Resolver) Path(key AssetKey, kind Kind) string {
	return filepath.Join(r.Dir(key), utils.SanitizePathSegment(key.Title)+key.Extension(kind))
}

// Resolve returns the file path of the kind asset of key and makes sure its directory exists.
// It is safe to call concurrently and repeatedly for the same key.
func (r *Resolver) Resolve(key AssetKey, kind Kind) (string, error) {
	path := r.Path(key, kind)

	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultFolderPermissions); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return path, nil
}

// Probe reports whether the kind asset of key is already cached.
// Only regular files count as hits.
func (r *Resolver) Probe(key AssetKey, kind Kind) (string, bool, error) {
	path := r.Path(key, kind)

	exists, err := utils.IsFileExist(path)
	if err != nil {
		return path, false, fmt.Errorf("failed to probe %s: %w", path, err)
	}

	return path, exists, nil
}

// Rel returns path relative to the storage root using forward slashes.
func (r *Resolver) Rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}

	return filepath.ToSlash(rel)
}

// TempPath returns the temporary file used while dest is being written.
func TempPath(dest string) string {
	return dest + constants.ExtensionTemp
}
