package cache

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/metrics"
	http_transport "github.com/oshokin/tunestash/internal/transport/http"
)

// fullRangePrefix is the only Range form whose bytes make a complete copy.
const fullRangePrefix = "bytes=0-"

// mirroredHeaders are copied from the upstream response to the client.
//
//nolint:gochecknoglobals // Immutable list used as a constant.
var mirroredHeaders = []string{"Content-Type", "Content-Length", "Accept-Ranges", "Content-Range"}

// PersistRequest asks the proxy to keep a full copy of the streamed asset.
type PersistRequest struct {
	// Dest is the final cache path.
	Dest string
	// Observer receives progress of the background copy. May be nil.
	Observer ProgressObserver
}

// Proxy relays upstream audio to clients and hands persistence to a Coordinator.
type Proxy struct {
	client      *http.Client
	coordinator *Coordinator
	metrics     *metrics.Metrics
}

// NewProxy creates a Proxy. A nil client gets one with the default connect timeout.
func NewProxy(client *http.Client, coordinator *Coordinator, m *metrics.Metrics) *Proxy {
	if client == nil {
		client = http_transport.NewClient(http_transport.ClientOptions{
			ConnectTimeout:  http_transport.DefaultProxyConnectTimeout,
			FollowRedirects: true,
		})
	}

	return &Proxy{
		client:      client,
		coordinator: coordinator,
		metrics:     m,
	}
}

// IsPartialRange reports whether a Range header asks for bytes that do not start at zero.
func IsPartialRange(rangeHeader string) bool {
	rangeHeader = strings.TrimSpace(rangeHeader)

	return rangeHeader != "" && !strings.HasPrefix(rangeHeader, fullRangePrefix)
}

// Serve streams upstreamURL to w.
//
// Failures before the response headers are written produce a 502 and are returned.
// Failures after that abort the connection with http.ErrAbortHandler.
// A client that goes away is not an error.
func (p *Proxy) Serve(w http.ResponseWriter, r *http.Request, upstreamURL string, persist *PersistRequest) error {
	ctx := r.Context()
	rangeHeader := r.Header.Get("Range")

	if persist != nil && !IsPartialRange(rangeHeader) {
		if err := p.coordinator.Persist(persist.Dest, upstreamURL, persist.Observer); err != nil {
			logger.Warnf(ctx, "Failed to start background caching of '%s': %v", persist.Dest, err)
			notify(persist.Observer, ProgressEvent{Status: StatusFailed, Total: -1, Error: err.Error()})
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, upstreamURL, http.NoBody)
	if err != nil {
		return p.fail(w, fmt.Errorf("%w: %w", ErrNetwork, err))
	}

	if rangeHeader != "" {
		request.Header.Set("Range", rangeHeader)
	}

	response, err := p.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return p.fail(w, classifyError(err))
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusPartialContent {
		return p.fail(w, fmt.Errorf("%w: %d", ErrUpstreamStatus, response.StatusCode))
	}

	for _, header := range mirroredHeaders {
		if value := response.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}

	w.WriteHeader(response.StatusCode)

	controller := http.NewResponseController(w)
	_ = controller.Flush()

	written, err := p.relay(w, controller, response.Body)
	p.metrics.AddProxiedBytes(written)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPartialWrite) || ctx.Err() != nil:
		logger.Debugf(ctx, "Client went away after %d bytes", written)

		return nil
	default:
		logger.Warnf(ctx, "Upstream stream broke after %d bytes: %v", written, err)

		panic(http.ErrAbortHandler)
	}
}

func (p *Proxy) relay(w io.Writer, controller *http.ResponseController, body io.Reader) (int64, error) {
	var (
		buffer  = make([]byte, copyBufferSize)
		written int64
	)

	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := w.Write(buffer[:n]); err != nil {
				return written, fmt.Errorf("%w: %w", ErrPartialWrite, err)
			}

			written += int64(n)

			if err := controller.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("%w: %w", ErrPartialWrite, err)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, fmt.Errorf("%w: %w", ErrNetwork, readErr)
		}
	}
}

func (p *Proxy) fail(w http.ResponseWriter, err error) error {
	http.Error(w, "upstream stream error: "+err.Error(), http.StatusBadGateway)

	return err
}
