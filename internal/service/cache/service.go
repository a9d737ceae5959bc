package cache

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oshokin/tunestash/internal/client/upstream"
	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/metrics"
	"github.com/oshokin/tunestash/internal/storage"
	http_transport "github.com/oshokin/tunestash/internal/transport/http"
	"github.com/oshokin/tunestash/internal/utils"
)

// Service is the caching layer used by the HTTP API and the CLI.
type Service interface {
	// ResolveAndProbe returns the cache path of an asset and whether it is present.
	ResolveAndProbe(key storage.AssetKey, kind storage.Kind) (string, bool, error)
	// EnsureCached downloads sourceURL into the cache unless the asset is already there.
	EnsureCached(
		ctx context.Context,
		key storage.AssetKey,
		kind storage.Kind,
		sourceURL string,
		observer ProgressObserver,
	) error
	// Proxy streams upstreamURL to the client, optionally persisting a copy.
	Proxy(w http.ResponseWriter, r *http.Request, upstreamURL string, persist *PersistRequest) error
	// Play serves a song from the cache or streams it from upstream while caching it.
	Play(ctx context.Context, w http.ResponseWriter, r *http.Request, req PlayRequest) error
	// Lyrics returns the lyrics of a song, caching them on first use.
	Lyrics(ctx context.Context, source, id string) (string, error)
	// Cover locates the cover of a song, caching it in the background on first use.
	Cover(ctx context.Context, source, id string) (*CoverResult, error)
	// SaveAll caches a list of songs for offline use.
	SaveAll(ctx context.Context, req SaveAllRequest) (*SaveAllResult, error)
	// Scan lists the songs available offline.
	Scan(ctx context.Context) ([]LibraryItem, error)
	// Stats summarizes the cache tree.
	Stats(ctx context.Context) (*StorageStats, error)
	// Tasks lists download tasks.
	Tasks() []Task
	// StorageRoot returns the root of the cache tree.
	StorageRoot() string
	// Close stops background downloads and task timers.
	Close()
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client talks to the upstream music API.
	client upstream.Client
	// resolver maps asset keys to cache paths.
	resolver *storage.Resolver
	// coordinator runs deduplicated background downloads.
	coordinator *Coordinator
	// proxy relays live streams.
	proxy *Proxy
	// scanner rebuilds the offline catalog.
	scanner *Scanner
	// registry records download tasks.
	registry *Registry
	// metrics may be nil.
	metrics *metrics.Metrics
}

// NewService creates the caching service. cfg must have passed config.ValidateConfig.
func NewService(cfg *config.Config, client upstream.Client, m *metrics.Metrics) *ServiceImpl {
	userAgentProvider := utils.NewUserAgentProvider(cfg.UserAgent, http_transport.DefaultUserAgent)
	resolver := storage.NewResolver(cfg.StoragePath)

	coordinator := NewCoordinator(CoordinatorOptions{
		HTTPClient: http_transport.NewClient(http_transport.ClientOptions{
			FollowRedirects:   true,
			UserAgentProvider: userAgentProvider,
		}),
		Retries:     int(cfg.RetryAttemptsCount),
		BackoffBase: cfg.ParsedRetryBackoffBase,
		Timeout:     cfg.ParsedDownloadTimeout,
		SpeedLimit:  cfg.ParsedDownloadSpeedLimit,
		Metrics:     m,
	})

	proxyClient := http_transport.NewClient(http_transport.ClientOptions{
		ConnectTimeout:    cfg.ParsedProxyConnectTimeout,
		FollowRedirects:   true,
		UserAgentProvider: userAgentProvider,
	})

	return &ServiceImpl{
		cfg:         cfg,
		client:      client,
		resolver:    resolver,
		coordinator: coordinator,
		proxy:       NewProxy(proxyClient, coordinator, m),
		scanner:     NewScanner(resolver),
		registry:    NewRegistry(cfg.ParsedTaskRetention, m),
		metrics:     m,
	}
}

// TaskID identifies the download of one song in one quality.
func TaskID(source, id, quality string) string {
	return fmt.Sprintf("%s_%s_%s", source, id, quality)
}

// ResolveAndProbe returns the cache path of an asset and whether it is present.
func (s *ServiceImpl) ResolveAndProbe(key storage.AssetKey, kind storage.Kind) (string, bool, error) {
	path, hit, err := s.resolver.Probe(key, kind)
	if err != nil {
		return "", false, classifyError(err)
	}

	s.metrics.ObserveProbe(string(kind), hit)

	return path, hit, nil
}

// EnsureCached downloads sourceURL into the cache unless the asset is already there.
func (s *ServiceImpl) EnsureCached(
	ctx context.Context,
	key storage.AssetKey,
	kind storage.Kind,
	sourceURL string,
	observer ProgressObserver,
) error {
	dest, err := s.resolver.Resolve(key, kind)
	if err != nil {
		return newTaskError(s.resolver.Rel(s.resolver.Path(key, kind)), PhaseDownload, classifyError(err))
	}

	if err = s.coordinator.EnsureCached(ctx, dest, sourceURL, observer); err != nil {
		return newTaskError(s.resolver.Rel(dest), PhaseDownload, err)
	}

	return nil
}

// Proxy streams upstreamURL to the client, optionally persisting a copy.
func (s *ServiceImpl) Proxy(w http.ResponseWriter, r *http.Request, upstreamURL string, persist *PersistRequest) error {
	return s.proxy.Serve(w, r, upstreamURL, persist)
}

// Scan lists the songs available offline.
func (s *ServiceImpl) Scan(ctx context.Context) ([]LibraryItem, error) {
	return s.scanner.Scan(ctx)
}

// Stats summarizes the cache tree.
func (s *ServiceImpl) Stats(ctx context.Context) (*StorageStats, error) {
	return s.scanner.Stats(ctx)
}

// Tasks lists download tasks ordered by start time.
func (s *ServiceImpl) Tasks() []Task {
	return s.registry.List()
}

// StorageRoot returns the root of the cache tree.
func (s *ServiceImpl) StorageRoot() string {
	return s.resolver.Root()
}

// Close stops background downloads and task timers.
func (s *ServiceImpl) Close() {
	s.coordinator.Close()
	s.registry.Close()
}

// songKey builds the asset key of a song from upstream metadata.
func songKey(source string, info *upstream.SongInfo, fallbackName, quality string) storage.AssetKey {
	name := info.Name
	if name == "" {
		name = fallbackName
	}

	return storage.AssetKey{
		Platform: source,
		Artist:   info.Artist,
		Album:    info.Album,
		Title:    name,
		Quality:  quality,
	}
}

// songInfo fetches metadata, logging instead of failing when it is unavailable.
func (s *ServiceImpl) songInfo(ctx context.Context, source, id string) *upstream.SongInfo {
	info, err := s.client.GetSongInfo(ctx, source, id)
	if err != nil {
		logger.Warnf(ctx, "Failed to fetch song info: %v", err)

		return nil
	}

	return info
}

// taskObserver records progress events of taskID in the registry.
func (s *ServiceImpl) taskObserver(taskID string) ProgressObserver {
	return ProgressFunc(func(event ProgressEvent) {
		s.registry.Upsert(taskID, event.TaskUpdate())
	})
}
