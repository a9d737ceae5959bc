package http

import (
	"net"
	"net/http"
	"time"

	"github.com/oshokin/tunestash/internal/utils"
)

// ClientOptions configures a client built by NewClient.
type ClientOptions struct {
	// Timeout bounds the whole exchange including the body. Zero means no overall limit.
	Timeout time.Duration
	// ConnectTimeout bounds dialing and waiting for response headers. Zero keeps transport defaults.
	ConnectTimeout time.Duration
	// FollowRedirects controls whether 3xx responses are followed.
	FollowRedirects bool
	// UserAgentProvider supplies the User-Agent for requests that lack one.
	UserAgentProvider utils.UserAgentProvider
	// MaxLogLength caps debug dumps.
	MaxLogLength uint64
}

// NewClient builds an HTTP client whose transport chain is
// User-Agent injection, then debug logging, then the network transport.
func NewClient(opts ClientOptions) *http.Client {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}

	transport := base.Clone()

	if opts.ConnectTimeout > 0 {
		dialer := &net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second, //nolint:mnd // Matches the standard library default.
		}

		transport.DialContext = dialer.DialContext
		transport.ResponseHeaderTimeout = opts.ConnectTimeout
	}

	provider := opts.UserAgentProvider
	if provider == nil {
		provider = utils.NewUserAgentProvider("", DefaultUserAgent)
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewUserAgentInjector(NewLogTransport(transport, opts.MaxLogLength), provider),
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}
