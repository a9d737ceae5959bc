package upstream

// SongInfo is the metadata the upstream returns for a song.
type SongInfo struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Pic    string `json:"pic"`
}

// Resolution is the outcome of a URL or cover lookup.
type Resolution struct {
	// Location is the direct URL of the asset bytes.
	Location string
	// SourceSwitch is set when the upstream fell back to another platform.
	SourceSwitch string
}

// ResolveKind selects which redirecting endpoint ResolveURL queries.
type ResolveKind string

const (
	// ResolveAudio resolves the audio stream URL.
	ResolveAudio ResolveKind = "url"
	// ResolveCover resolves the cover image URL.
	ResolveCover ResolveKind = "pic"
)

// envelope is the JSON wrapper of every upstream JSON response.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
