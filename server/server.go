// Package server exposes the catalog, the upload registry, and the
// extraction engine over HTTP.
//
// Uploads are scoped to a session cookie so concurrent users never see each
// other's payloads. Catalog invariant violations surface as structured JSON
// errors; a successful extraction streams back as a text/csv attachment.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/extract"
	"github.com/unitab-io/unitab/log"
	"github.com/unitab-io/unitab/metrics"
	"github.com/unitab-io/unitab/uploads"
)

const shutdownGrace = 10 * time.Second

// Flags holds the CLI flag names for server configuration.
type Flags struct {
	Addr string
}

// Config holds the CLI flag values for server configuration.
type Config struct {
	Addr  string
	Flags Flags
}

// NewConfig creates a [Config] with the default flag names.
func NewConfig() *Config {
	return &Config{Flags: Flags{Addr: "listen"}}
}

// RegisterFlags adds server flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Addr, c.Flags.Addr, ":8080", "address to listen on")
}

// Server wires the catalog store, the session-scoped upload registry, and
// the extraction engine into an HTTP handler.
//
// Create instances with [New].
type Server struct {
	store       catalog.Store
	uploads     *uploads.Registry
	extractor   *extract.Extractor
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	broadcaster *log.Broadcaster
	engine      *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logging and engine
// diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry backing /metrics. Defaults to a
// private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithBroadcaster exposes a log broadcaster on /api/logs/stream, so
// operators can tail the service log over HTTP.
func WithBroadcaster(b *log.Broadcaster) Option {
	return func(s *Server) {
		s.broadcaster = b
	}
}

// New creates a Server over the given catalog store.
func New(store catalog.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		uploads:  uploads.NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
		registry: prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.metrics = metrics.New(s.registry)
	s.extractor = extract.New(store, extract.WithLogger(s.logger))
	s.engine = s.router()

	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", slog.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")

	return nil
}

func (s *Server) router() *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), s.requestLog(), s.session())

	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	if s.broadcaster != nil {
		e.GET("/api/logs/stream", s.streamLogs)
	}

	api := e.Group("/api")
	{
		api.POST("/systems", s.createSystem)
		api.GET("/systems", s.listSystems)
		api.GET("/systems/:id", s.getSystem)
		api.DELETE("/systems/:id", s.deleteSystem)

		api.POST("/systems/:id/sources", s.createSource)
		api.GET("/systems/:id/sources", s.listSources)
		api.DELETE("/sources/:id", s.deleteSource)

		api.POST("/sources/:id/attributes", s.createAttribute)
		api.GET("/sources/:id/attributes", s.listAttributes)
		api.DELETE("/attributes/:id", s.deleteAttribute)

		api.POST("/systems/:id/crossrefs", s.createCrossRef)
		api.GET("/systems/:id/crossrefs", s.listCrossRefs)
		api.DELETE("/crossrefs/:id", s.deleteCrossRef)

		api.POST("/crossrefs/:id/mappings", s.createCrossRefMapping)
		api.GET("/crossrefs/:id/mappings", s.listCrossRefMappings)
		api.DELETE("/crossref-mappings/:id", s.deleteCrossRefMapping)

		api.POST("/canonicals", s.createCanonical)
		api.GET("/canonicals", s.listCanonicals)

		api.POST("/systems/:id/data-mappings", s.createDataMapping)
		api.GET("/systems/:id/data-mappings", s.listDataMappings)
		api.DELETE("/data-mappings/:id", s.deleteDataMapping)

		api.POST("/systems/:id/filters", s.createFilter)
		api.GET("/systems/:id/filters", s.listFilters)
		api.DELETE("/filters/:id", s.deleteFilter)

		api.POST("/sources/:id/upload", s.uploadPayload)
		api.GET("/sessions/uploads", s.listUploads)

		api.POST("/systems/:id/extract", s.runExtraction)
	}

	return e
}

// apiError is the JSON error envelope.
type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// fail writes a catalog or engine error with its HTTP-equivalent status.
func (s *Server) fail(c *gin.Context, err error) {
	var engineErr *extract.Error
	if errors.As(err, &engineErr) {
		c.JSON(engineErr.HTTPStatus(), apiError{Kind: string(engineErr.Kind), Message: engineErr.Message})

		return
	}

	status, kind := http.StatusInternalServerError, "internal"

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, catalog.ErrDuplicate):
		status, kind = http.StatusConflict, "duplicate"
	case errors.Is(err, catalog.ErrInUse):
		status, kind = http.StatusConflict, "in_use"
	case errors.Is(err, catalog.ErrInvalid):
		status, kind = http.StatusBadRequest, "invalid"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}

	c.JSON(status, apiError{Kind: kind, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apiError{Kind: "invalid", Message: err.Error()})
}
