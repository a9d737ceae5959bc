package upstream

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
	http_transport "github.com/oshokin/tunestash/internal/transport/http"
	"github.com/oshokin/tunestash/internal/utils"
)

// Client defines the interface for interacting with the upstream music API.
type Client interface {
	// GetSongInfo retrieves song metadata.
	GetSongInfo(ctx context.Context, source, id string) (*SongInfo, error)
	// ResolveURL resolves the direct URL of an audio stream or a cover image.
	ResolveURL(ctx context.Context, source, id string, kind ResolveKind, quality string) (*Resolution, error)
	// GetLyrics retrieves lyrics as plain text.
	GetLyrics(ctx context.Context, source, id string) (string, error)
}

// ClientImpl implements the Client interface.
type ClientImpl struct {
	// apiURL is the endpoint every upstream request is sent to.
	apiURL string
	// httpClient does not follow redirects so ResolveURL can read Location.
	httpClient *http.Client
	// songInfoCache caches song metadata keyed by source and id.
	songInfoCache *lru.Cache[string, *SongInfo]
}

const (
	// apiURI is the path of the single upstream endpoint.
	apiURI = "api/"
	// sourceSwitchHeader signals that the upstream served another platform.
	sourceSwitchHeader = "X-Source-Switch"
	// maxLyricsSize caps the lyrics body read into memory.
	maxLyricsSize = 4 * 1024 * 1024
)

const (
	queryParamSource  = "source"
	queryParamID      = "id"
	queryParamType    = "type"
	queryParamQuality = "br"

	requestTypeInfo   = "info"
	requestTypeLyrics = "lrc"
)

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	baseURL, err := url.Parse(cfg.UpstreamBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}

	songInfoCache, err := lru.New[string, *SongInfo](int(cfg.SongInfoCacheSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create song info cache: %w", err)
	}

	httpClient := http_transport.NewClient(http_transport.ClientOptions{
		Timeout:           http_transport.DefaultTimeout,
		UserAgentProvider: utils.NewUserAgentProvider(cfg.UserAgent, http_transport.DefaultUserAgent),
	})

	return &ClientImpl{
		apiURL:        baseURL.JoinPath(apiURI).String(),
		httpClient:    httpClient,
		songInfoCache: songInfoCache,
	}, nil
}

// GetSongInfo retrieves song metadata.
// Successful responses are cached, failures are not.
func (c *ClientImpl) GetSongInfo(ctx context.Context, source, id string) (*SongInfo, error) {
	if source == "" || id == "" {
		return nil, ErrEmptyArgument
	}

	cacheKey := source + "/" + id
	if info, ok := c.songInfoCache.Get(cacheKey); ok {
		return info, nil
	}

	response, err := c.get(ctx, url.Values{
		queryParamSource: {source},
		queryParamID:     {id},
		queryParamType:   {requestTypeInfo},
	})
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	var result envelope[*SongInfo]
	if err = json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode song info: %w", err)
	}

	if result.Code != http.StatusOK || result.Data == nil {
		return nil, fmt.Errorf("%w: code %d %s", ErrSongInfoUnavailable, result.Code, result.Message)
	}

	c.songInfoCache.Add(cacheKey, result.Data)

	return result.Data, nil
}

// ResolveURL resolves the direct URL of an audio stream or a cover image.
// The upstream answers with a 301/302 redirect, or for covers sometimes with
// a JSON envelope whose data is the URL.
func (c *ClientImpl) ResolveURL(
	ctx context.Context,
	source, id string,
	kind ResolveKind,
	quality string,
) (*Resolution, error) {
	if source == "" || id == "" {
		return nil, ErrEmptyArgument
	}

	query := url.Values{
		queryParamSource: {source},
		queryParamID:     {id},
		queryParamType:   {string(kind)},
	}

	if quality != "" && kind == ResolveAudio {
		query.Set(queryParamQuality, quality)
	}

	response, err := c.get(ctx, query)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	switch response.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound:
		location := response.Header.Get("Location")
		if location == "" {
			return nil, ErrMissingLocation
		}

		return &Resolution{
			Location:     location,
			SourceSwitch: response.Header.Get(sourceSwitchHeader),
		}, nil
	case http.StatusOK:
		var result envelope[string]
		if err = json.NewDecoder(response.Body).Decode(&result); err != nil || result.Code != http.StatusOK ||
			!strings.HasPrefix(result.Data, "http") {
			return nil, fmt.Errorf("%w: %d without redirect", ErrUnexpectedHTTPStatus, response.StatusCode)
		}

		return &Resolution{Location: result.Data}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}
}

// GetLyrics retrieves lyrics as plain text.
func (c *ClientImpl) GetLyrics(ctx context.Context, source, id string) (string, error) {
	if source == "" || id == "" {
		return "", ErrEmptyArgument
	}

	response, err := c.get(ctx, url.Values{
		queryParamSource: {source},
		queryParamID:     {id},
		queryParamType:   {requestTypeLyrics},
	})
	if err != nil {
		return "", err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxLyricsSize))
	if err != nil {
		return "", fmt.Errorf("failed to read lyrics: %w", err)
	}

	return string(body), nil
}

func (c *ClientImpl) get(ctx context.Context, query url.Values) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	request.URL.RawQuery = query.Encode()

	logger.Debugf(ctx, "Upstream request: %s", request.URL.RawQuery)

	return c.httpClient.Do(request)
}
