package constants

import "os"

const (
	// DefaultFilePermissions is used for cached assets and written configs (rw-r--r--).
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions is used for the cache tree (rwxr-xr-x).
	DefaultFolderPermissions os.FileMode = 0o755
)

// File extension constants.
const (
	ExtensionMP3  = ".mp3"
	ExtensionFLAC = ".flac"
	ExtensionLRC  = ".lrc"
	ExtensionJPG  = ".jpg"
	ExtensionTemp = ".tmp"
)

// UnknownPlaceholder replaces missing or fully-invalid path segments.
const UnknownPlaceholder = "unknown"
