package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/oshokin/tunestash/internal/metrics"
)

// DefaultTaskRetention is how long finished tasks stay visible.
const DefaultTaskRetention = 10 * time.Minute

// Task is a download as seen by polling clients.
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Artist     string    `json:"artist,omitempty"`
	Status     Status    `json:"status"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"startTime"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// TaskUpdate holds the fields to merge into a task. Nil fields are left unchanged.
type TaskUpdate struct {
	Name     *string
	Artist   *string
	Status   *Status
	Progress *float64
	Error    *string
}

// Registry is the in-memory table of download tasks.
// Finished tasks are removed after the retention window.
type Registry struct {
	retention time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
	closed  bool
}

type registryEntry struct {
	task  Task
	timer *time.Timer
	// generation invalidates removal timers scheduled before the latest upsert.
	generation uint64
}

// NewRegistry creates a registry. A non-positive retention falls back to DefaultTaskRetention.
func NewRegistry(retention time.Duration, m *metrics.Metrics) *Registry {
	if retention <= 0 {
		retention = DefaultTaskRetention
	}

	return &Registry{
		retention: retention,
		metrics:   m,
		now:       time.Now,
		entries:   make(map[string]*registryEntry),
	}
}

// Upsert merges update into the task id, creating it when absent, and returns the result.
// Any upsert cancels a pending removal; a terminal status schedules a new one.
func (r *Registry) Upsert(id string, update TaskUpdate) Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	entry, ok := r.entries[id]
	if !ok {
		entry = &registryEntry{task: Task{ID: id, Status: StatusPending, StartTime: now}}
		r.entries[id] = entry
	}

	update.apply(&entry.task)
	entry.task.LastUpdate = now

	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}

	entry.generation++

	if entry.task.Status.IsTerminal() && !r.closed {
		generation := entry.generation
		entry.timer = time.AfterFunc(r.retention, func() {
			r.expire(id, generation)
		})
	}

	r.metrics.SetTasks(len(r.entries))

	return entry.task
}

// Get returns the task id.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return Task{}, false
	}

	return entry.task, true
}

// List returns copies of all tasks ordered by start time.
func (r *Registry) List() []Task {
	r.mu.Lock()

	tasks := make([]Task, 0, len(r.entries))
	for _, entry := range r.entries {
		tasks = append(tasks, entry.task)
	}

	r.mu.Unlock()

	slices.SortFunc(tasks, func(a, b Task) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}

		if a.ID < b.ID {
			return -1
		}

		if a.ID > b.ID {
			return 1
		}

		return 0
	})

	return tasks
}

// Len returns the number of tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Close stops all removal timers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	for _, entry := range r.entries {
		if entry.timer != nil {
			entry.timer.Stop()
			entry.timer = nil
		}
	}
}

func (r *Registry) expire(id string, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.generation != generation {
		return
	}

	delete(r.entries, id)
	r.metrics.SetTasks(len(r.entries))
}

func (u TaskUpdate) apply(task *Task) {
	if u.Name != nil {
		task.Name = *u.Name
	}

	if u.Artist != nil {
		task.Artist = *u.Artist
	}

	if u.Status != nil {
		task.Status = *u.Status
	}

	if u.Progress != nil {
		task.Progress = *u.Progress
	}

	if u.Error != nil {
		task.Error = *u.Error
	}
}

// pendingUpdate registers a task that has not started yet.
func pendingUpdate(name, artist string) TaskUpdate {
	status := StatusPending
	progress := 0.0
	noError := ""

	return TaskUpdate{
		Name:     &name,
		Artist:   &artist,
		Status:   &status,
		Progress: &progress,
		Error:    &noError,
	}
}

// failedUpdate marks a task as failed with err.
func failedUpdate(err error) TaskUpdate {
	status := StatusFailed
	message := err.Error()

	return TaskUpdate{Status: &status, Error: &message}
}
