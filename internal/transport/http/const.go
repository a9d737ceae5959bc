package http

import "time"

const (
	// DefaultTimeout is the default timeout for metadata requests to the upstream API.
	DefaultTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds a single background download attempt.
	DefaultDownloadTimeout = 120 * time.Second

	// DefaultProxyConnectTimeout bounds connection establishment for live proxying.
	DefaultProxyConnectTimeout = 30 * time.Second

	// DefaultUserAgent is the User-Agent used when none is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36" //nolint: lll
)
