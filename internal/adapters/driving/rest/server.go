// Package rest provides the HTTP API for recall, built on gin.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/metrics"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("rest: search service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Search provides search and index management.
	Search driving.SearchService

	// Embedding reports embedding provider health. Optional.
	Embedding driving.EmbeddingJobService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

// Server is the REST API server.
type Server struct {
	ports  *Ports
	router *gin.Engine
}

// Option configures optional middleware.
type Option func(*options)

type options struct {
	corsOrigins []string
	traceName   string
}

// WithCORS allows browser requests from the given origins.
func WithCORS(origins ...string) Option {
	return func(o *options) {
		o.corsOrigins = append(o.corsOrigins, origins...)
	}
}

// WithTracing starts a span per request under the given service name.
func WithTracing(service string) Option {
	return func(o *options) {
		o.traceName = service
	}
}

// NewServer creates a server and registers its routes.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	if o.traceName != "" {
		router.Use(otelgin.Middleware(o.traceName))
	}
	if len(o.corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: o.corsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s := &Server{ports: ports, router: router}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/health/embedding", s.handleEmbeddingHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	search := s.router.Group("/search")
	{
		search.GET("", s.handleSearch)
		search.GET("/all", s.handleSearchAll)
		search.POST("/rebuild-index", s.handleRebuild)
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("REST API shutdown: %v", err)
		}
	}()

	logger.Info("REST API listening on http://%s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l := logger.L()
		l.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
