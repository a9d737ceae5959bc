package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/service/cache"
)

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// Server is the HTTP front of the caching service.
type Server struct {
	service    cache.Service
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router. gatherer backs /metrics and may be nil.
func NewServer(listenAddress string, service cache.Service, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service: service,
		router:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes(gatherer)

	s.httpServer = &http.Server{
		Addr:              listenAddress,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Range", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Range",
		"Accept-Ranges",
		cache.SourceSwitchHeader,
		RequestIDHeader,
	}

	s.router.Use(recovery(), requestContext(), cors.New(corsConfig))
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	h := newHandlers(s.service)

	s.router.GET("/health", h.health)

	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s.router.Static("/storage", s.service.StorageRoot())

	v1 := s.router.Group("/api")
	{
		v1.GET("/download/tasks", h.tasks)
		v1.GET("/local/library", h.library)
		v1.GET("/storage/stats", h.storageStats)

		v1.GET("/proxy/url", h.play)
		v1.GET("/proxy/lrc", h.lyrics)
		v1.GET("/proxy/pic", h.cover)

		v1.POST("/playlist/save-all", h.saveAll)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	logger.Infof(ctx, "Listening on %s", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting connections and waits for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
