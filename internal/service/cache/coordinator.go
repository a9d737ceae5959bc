package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/metrics"
	"github.com/oshokin/tunestash/internal/storage"
	http_transport "github.com/oshokin/tunestash/internal/transport/http"
	"github.com/oshokin/tunestash/internal/utils"
)

const (
	// copyBufferSize is the chunk size of background downloads.
	copyBufferSize = 32 * 1024
	// unknownSizeReportInterval is how often progress is published when the size is unknown.
	unknownSizeReportInterval = 256 * 1024
	// subscriberBufferSize is the capacity of a progress subscription.
	subscriberBufferSize = 16
)

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// HTTPClient fetches source URLs. It must follow redirects.
	HTTPClient *http.Client
	// Retries is the number of attempts after the first one.
	Retries int
	// BackoffBase is multiplied by 2^attempt before each retry.
	BackoffBase time.Duration
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// SpeedLimit caps the combined download speed in bytes per second. Zero disables it.
	SpeedLimit int64
	// Metrics receives attempt counters. May be nil.
	Metrics *metrics.Metrics
}

// Coordinator runs background downloads with at most one transfer per destination path.
type Coordinator struct {
	client      *http.Client
	retries     int
	backoffBase time.Duration
	timeout     time.Duration
	limiter     *rate.Limiter
	metrics     *metrics.Metrics

	// ctx is the lifetime of all transfers, detached from any caller.
	ctx    context.Context //nolint:containedctx // Transfers outlive the requests that start them.
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	flights map[string]*Flight
	closed  bool
}

// Flight is the shared handle of one in-flight transfer.
type Flight struct {
	dest      string
	sourceURL string
	done      chan struct{}
	err       error

	mu          sync.Mutex
	subscribers map[chan ProgressEvent]struct{}
	terminal    *ProgressEvent
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	client := opts.HTTPClient
	if client == nil {
		client = http_transport.NewClient(http_transport.ClientOptions{FollowRedirects: true})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = http_transport.DefaultDownloadTimeout
	}

	var limiter *rate.Limiter

	if opts.SpeedLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SpeedLimit), max(int(opts.SpeedLimit), copyBufferSize))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		client:      client,
		retries:     max(opts.Retries, 0),
		backoffBase: opts.BackoffBase,
		timeout:     timeout,
		limiter:     limiter,
		metrics:     opts.Metrics,
		ctx:         ctx,
		cancel:      cancel,
		flights:     make(map[string]*Flight),
	}
}

// Start registers a transfer of sourceURL into dest, or joins the one already running for dest.
func (c *Coordinator) Start(dest, sourceURL string) (*Flight, error) {
	flight, _, err := c.join(dest, sourceURL, false)

	return flight, err
}

// EnsureCached makes sure dest holds the bytes of sourceURL.
// When dest already exists it reports a single completed event without any network access.
// ctx bounds only the wait: the transfer itself keeps running when ctx is done.
func (c *Coordinator) EnsureCached(
	ctx context.Context,
	dest, sourceURL string,
	observer ProgressObserver,
) error {
	exists, err := utils.IsFileExist(dest)
	if err != nil {
		return classifyError(err)
	}

	if exists {
		notify(observer, completedEvent(0))

		return nil
	}

	flight, events, err := c.join(dest, sourceURL, true)
	if err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				<-flight.done

				return flight.err
			}

			notify(observer, event)
		case <-ctx.Done():
			flight.unsubscribe(events)

			return ctx.Err()
		}
	}
}

// Persist starts filling dest in the background and forwards progress to observer.
func (c *Coordinator) Persist(dest, sourceURL string, observer ProgressObserver) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return ErrCoordinatorClosed
	}

	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		if err := c.EnsureCached(c.ctx, dest, sourceURL, observer); err != nil {
			logger.Warnf(c.ctx, "Background caching of '%s' failed: %v", dest, err)
		}
	}()

	return nil
}

// InFlight returns the number of active transfers.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.flights)
}

// Close cancels all transfers and waits for them to stop.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) join(dest, sourceURL string, subscribe bool) (*Flight, chan ProgressEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrCoordinatorClosed
	}

	flight, ok := c.flights[dest]
	if ok {
		c.metrics.ObserveDedupJoin()
		logger.Debugf(c.ctx, "Joining in-flight download of '%s'", dest)
	} else {
		flight = &Flight{
			dest:        dest,
			sourceURL:   sourceURL,
			done:        make(chan struct{}),
			subscribers: make(map[chan ProgressEvent]struct{}),
		}

		c.flights[dest] = flight
	}

	var events chan ProgressEvent
	if subscribe {
		events = flight.subscribe()
	}

	if !ok {
		c.wg.Add(1)

		go c.run(flight)
	}

	return flight, events, nil
}

func (c *Coordinator) run(flight *Flight) {
	defer c.wg.Done()

	ctx := logger.WithKV(c.ctx, "dest", flight.dest)
	err := c.transfer(ctx, flight)

	c.mu.Lock()
	delete(c.flights, flight.dest)
	c.mu.Unlock()

	flight.settle(err)
}

func (c *Coordinator) transfer(ctx context.Context, flight *Flight) error {
	var lastErr error

	for attempt := 1; attempt <= c.retries+1; attempt++ {
		if attempt > 1 {
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))

			logger.Warnf(ctx, "Download attempt %d failed: %v, retrying in %s", attempt-1, lastErr, backoff)

			if err := sleep(ctx, backoff); err != nil {
				return fmt.Errorf("%w: %w", ErrCoordinatorClosed, lastErr)
			}
		}

		exists, err := utils.IsFileExist(flight.dest)
		if err == nil && exists {
			flight.emit(completedEvent(attempt))

			return nil
		}

		lastErr = c.attempt(ctx, flight, attempt)
		if lastErr == nil {
			c.metrics.ObserveDownloadAttempt(metrics.ResultSuccess)
			flight.emit(completedEvent(attempt))

			return nil
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCoordinatorClosed, lastErr)
		}

		if !isRetryable(lastErr) {
			break
		}

		if attempt <= c.retries {
			c.metrics.ObserveDownloadAttempt(metrics.ResultRetry)
		}
	}

	c.metrics.ObserveDownloadAttempt(metrics.ResultFailure)
	logger.Errorf(ctx, "Download failed: %v", lastErr)

	return lastErr
}

// attempt downloads the source once into the temp file and publishes it.
//
//nolint:funlen // Sequential download steps read better together.
func (c *Coordinator) attempt(ctx context.Context, flight *Flight, attempt int) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, flight.sourceURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return classifyError(err)
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUpstreamStatus, response.StatusCode)
	}

	if err = os.MkdirAll(filepath.Dir(flight.dest), constants.DefaultFolderPermissions); err != nil {
		return classifyError(err)
	}

	tempPath := storage.TempPath(flight.dest)

	file, err := os.OpenFile(filepath.Clean(tempPath), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.DefaultFilePermissions)
	if err != nil {
		return classifyError(err)
	}

	var published bool

	defer func() {
		_ = file.Close()

		if !published {
			if removeErr := os.Remove(tempPath); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
				logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempPath, removeErr)
			}
		}
	}()

	total := response.ContentLength

	progress := ProgressEvent{Status: StatusDownloading, Total: total, Attempt: attempt}
	if total > 0 {
		progress.Progress = percent(0)
	}

	flight.emit(progress)

	written, err := c.copy(attemptCtx, file, response.Body, func(downloaded int64) {
		event := ProgressEvent{Status: StatusDownloading, Downloaded: downloaded, Total: total, Attempt: attempt}
		if total > 0 {
			event.Progress = percent(float64(downloaded) / float64(total) * 100) //nolint:mnd // Percentage.
		}

		flight.emit(event)
	})

	c.metrics.AddDownloadedBytes(written)

	if err != nil {
		return err
	}

	if total > 0 && written != total {
		return fmt.Errorf("%w: received %d of %d bytes", ErrNetwork, written, total)
	}

	if err = file.Close(); err != nil {
		return classifyError(err)
	}

	published, err = publish(tempPath, flight.dest)
	if err != nil {
		return err
	}

	if !published {
		logger.Infof(ctx, "'%s' appeared during download, discarding the new copy", flight.dest)
	}

	return nil
}

// copy streams src into dst, honoring the speed limit and reporting progress.
func (c *Coordinator) copy(
	ctx context.Context,
	dst io.Writer,
	src io.Reader,
	report func(downloaded int64),
) (int64, error) {
	var (
		buffer       = make([]byte, copyBufferSize)
		written      int64
		lastReported int64
	)

	for {
		n, readErr := src.Read(buffer)
		if n > 0 {
			if c.limiter != nil {
				if err := c.limiter.WaitN(ctx, n); err != nil {
					return written, fmt.Errorf("%w: %w", ErrNetwork, err)
				}
			}

			if _, err := dst.Write(buffer[:n]); err != nil {
				return written, fmt.Errorf("%w: %w", ErrFilesystem, err)
			}

			written += int64(n)

			if written-lastReported >= unknownSizeReportInterval {
				report(written)

				lastReported = written
			}
		}

		if errors.Is(readErr, io.EOF) {
			if written != lastReported {
				report(written)
			}

			return written, nil
		}

		if readErr != nil {
			return written, fmt.Errorf("%w: %w", ErrNetwork, readErr)
		}
	}
}

// publish moves tempPath to dest unless dest already exists.
// It reports whether tempPath became dest.
func publish(tempPath, dest string) (bool, error) {
	// A hard link fails when dest exists, so the first finished file wins.
	err := os.Link(tempPath, dest)
	if err == nil {
		_ = os.Remove(tempPath)

		return true, nil
	}

	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}

	// Some filesystems do not support hard links.
	exists, statErr := utils.IsFileExist(dest)
	if statErr != nil {
		return false, classifyError(statErr)
	}

	if exists {
		return false, nil
	}

	if err = os.Rename(tempPath, dest); err != nil {
		return false, classifyError(err)
	}

	return true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dest returns the destination path of the flight.
func (f *Flight) Dest() string {
	return f.dest
}

// Done is closed when the flight settles.
func (f *Flight) Done() <-chan struct{} {
	return f.done
}

// Err returns the terminal error. It is meaningful once Done is closed.
func (f *Flight) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the flight settles or ctx is done.
func (f *Flight) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel of progress events that is closed after the terminal event.
// Intermediate events may be dropped for slow readers, the terminal event never is.
func (f *Flight) Subscribe() <-chan ProgressEvent {
	return f.subscribe()
}

func (f *Flight) subscribe() chan ProgressEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make(chan ProgressEvent, subscriberBufferSize)

	if f.terminal != nil {
		events <- *f.terminal
		close(events)

		return events
	}

	f.subscribers[events] = struct{}{}

	return events
}

func (f *Flight) unsubscribe(events chan ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subscribers[events]; ok {
		delete(f.subscribers, events)
		close(events)
	}
}

func (f *Flight) emit(event ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.terminal != nil {
		return
	}

	if event.Status.IsTerminal() {
		f.terminal = &event
	}

	for events := range f.subscribers {
		select {
		case events <- event:
		default:
			if event.Status.IsTerminal() {
				// Make room so the terminal event is always delivered.
				select {
				case <-events:
				default:
				}

				events <- event
			}
		}
	}
}

func (f *Flight) settle(err error) {
	if err != nil {
		f.emit(ProgressEvent{Status: StatusFailed, Total: -1, Error: err.Error()})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = err
	close(f.done)

	for events := range f.subscribers {
		close(events)
	}

	f.subscribers = nil
}
