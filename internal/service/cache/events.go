package cache

// Status is the lifecycle state of a download task.
type Status string

const (
	// StatusPending means the download is registered but has not started.
	StatusPending Status = "pending"
	// StatusDownloading means bytes are being transferred.
	StatusDownloading Status = "downloading"
	// StatusCompleted means the asset is on disk.
	StatusCompleted Status = "completed"
	// StatusFailed means every attempt failed.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether s ends a task.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProgressEvent is one step of a download.
type ProgressEvent struct {
	Status Status
	// Progress is the completed percentage, nil while the total size is unknown.
	Progress *float64
	// Downloaded is the number of bytes written in the current attempt.
	Downloaded int64
	// Total is the expected size, or -1 when unknown.
	Total int64
	// Attempt is the 1-based attempt number.
	Attempt int
	// Error is the failure message of a failed event.
	Error string
}

// ProgressObserver receives progress events.
type ProgressObserver interface {
	OnProgress(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(event ProgressEvent)

// OnProgress calls f(event).
func (f ProgressFunc) OnProgress(event ProgressEvent) {
	f(event)
}

// TaskUpdate converts the event into a registry update.
func (e ProgressEvent) TaskUpdate() TaskUpdate {
	update := TaskUpdate{Status: &e.Status}

	if e.Progress != nil {
		progress := *e.Progress
		update.Progress = &progress
	}

	if e.Status == StatusFailed {
		message := e.Error
		update.Error = &message
	}

	return update
}

func completedEvent(attempt int) ProgressEvent {
	return ProgressEvent{
		Status:   StatusCompleted,
		Progress: percent(100),
		Total:    -1,
		Attempt:  attempt,
	}
}

func percent(value float64) *float64 {
	return &value
}

func notify(observer ProgressObserver, event ProgressEvent) {
	if observer != nil {
		observer.OnProgress(event)
	}
}
