package storage

import (
	"strings"

	"github.com/oshokin/tunestash/internal/constants"
)

// Kind is the type of asset stored for a song.
type Kind string

const (
	// KindAudio is the audio payload.
	KindAudio Kind = "audio"
	// KindLyrics is the lyrics text.
	KindLyrics Kind = "lyrics"
	// KindCover is the cover image.
	KindCover Kind = "cover"
)

const (
	// QualityDefault is used when no quality is requested.
	QualityDefault = "320k"
	// QualityFLAC is the lossless quality.
	QualityFLAC = "flac"
	// QualityFLAC24Bit is the high-resolution lossless quality.
	QualityFLAC24Bit = "flac24bit"
)

// AssetKey identifies one cacheable song.
type AssetKey struct {
	Platform string
	Artist   string
	Album    string
	Title    string
	Quality  string
}

// IsLossless reports whether quality names a lossless format.
func IsLossless(quality string) bool {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case QualityFLAC, QualityFLAC24Bit:
		return true
	default:
		return false
	}
}

// AudioExtension returns the audio file extension for quality.
func AudioExtension(quality string) string {
	if IsLossless(quality) {
		return constants.ExtensionFLAC
	}

	return constants.ExtensionMP3
}

// Extension returns the file extension for kind.
func (k AssetKey) Extension(kind Kind) string {
	switch kind {
	case KindLyrics:
		return constants.ExtensionLRC
	case KindCover:
		return constants.ExtensionJPG
	default:
		return AudioExtension(k.Quality)
	}
}

// IsAudioFile reports whether name has one of the audio extensions.
func IsAudioFile(name string) bool {
	lower := strings.ToLower(name)

	return strings.HasSuffix(lower, constants.ExtensionMP3) || strings.HasSuffix(lower, constants.ExtensionFLAC)
}
