package upstream

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrSongInfoUnavailable indicates that the metadata endpoint did not return song data.
	ErrSongInfoUnavailable = errors.New("song info unavailable")
	// ErrMissingLocation indicates that a redirect response carried no Location header.
	ErrMissingLocation = errors.New("redirect without location")
	// ErrEmptyArgument indicates that a required source or ID argument is empty.
	ErrEmptyArgument = errors.New("source and id are required")
)
