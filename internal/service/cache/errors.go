package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Error taxonomy of the caching layer.
var (
	// ErrNetwork covers connection failures, timeouts and truncated bodies.
	ErrNetwork = errors.New("network error")
	// ErrUpstreamStatus indicates an unexpected status code from the origin.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrFilesystem covers permission, space and path failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrPartialWrite indicates that the client went away mid-transfer.
	ErrPartialWrite = errors.New("client disconnected mid-transfer")
)

// Service errors.
var (
	// ErrCoordinatorClosed indicates that the coordinator was shut down.
	ErrCoordinatorClosed = errors.New("download coordinator closed")
	// ErrInvalidRequest indicates that a request is missing required fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTooManySongs indicates that a bulk save exceeds the configured limit.
	ErrTooManySongs = errors.New("too many songs")
)

// Phases reported in TaskError.
const (
	PhaseSongInfo = "fetch song info"
	PhaseResolve  = "resolve url"
	PhaseDownload = "download"
	PhaseLyrics   = "lyrics"
	PhaseCover    = "cover"
	PhaseProxy    = "proxy"
)

// TaskError is the structured failure returned to callers.
type TaskError struct {
	TaskID string
	Phase  string
	Err    error
}

// Error implements error.
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

func newTaskError(taskID, phase string, err error) error {
	if err == nil {
		return nil
	}

	return &TaskError{TaskID: taskID, Phase: phase, Err: err}
}

// classifyError maps a raw error onto the taxonomy.
// Path and link errors are filesystem errors, anything else is treated as a network error.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrUpstreamStatus) ||
		errors.Is(err, ErrFilesystem) ||
		errors.Is(err, ErrPartialWrite) {
		return err
	}

	var (
		pathErr *fs.PathError
		linkErr *os.LinkError
	)

	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// isRetryable reports whether a coordinator attempt failing with err may be retried.
func isRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrUpstreamStatus) || errors.Is(err, ErrFilesystem)
}
