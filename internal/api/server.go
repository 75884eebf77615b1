// Package api serves the georeferencing engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/registry"
	"github.com/sells-group/georef-cli/internal/resolve"
	"github.com/sells-group/georef-cli/pkg/geocode"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBatch = 1000
	maxBodyBytes    = 1 << 20
	maxBatchBytes   = 16 << 20
)

// Options configure a Server.
type Options struct {
	CORSOrigins      []string
	Timeout          time.Duration
	BatchConcurrency int
	MaxBatch         int
	// Geodesy draws error circles for GeoJSON output. Defaults to spherical.
	Geodesy geodesy.Geodesy
	// CacheStats, when set, is exported as geocode cache metrics.
	CacheStats func() geocode.CacheStats
}

// Server is the HTTP API.
type Server struct {
	resolver *resolve.Resolver
	reg      *registry.Registry
	geo      geodesy.Geodesy
	metrics  *Metrics
	router   *chi.Mux
	opts     Options
}

// NewServer builds the router around resolver.
func NewServer(resolver *resolve.Resolver, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = defaultMaxBatch
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	geo := opts.Geodesy
	if geo == nil {
		geo = geodesy.Spherical{}
	}

	s := &Server{
		resolver: resolver,
		reg:      resolver.Engine().Registry(),
		geo:      geo,
		metrics:  NewMetrics(opts.CacheStats),
		router:   chi.NewRouter(),
		opts:     opts,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Timeout(s.opts.Timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/constants", s.handleConstants)
		r.Get("/transform", s.handleTransform)
		r.Get("/precision", s.handlePrecision)
		r.Post("/georeference", s.handleGeoreference)
		r.Post("/georeference/batch", s.handleBatch)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("api: listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "api: listen")
	case <-ctx.Done():
	}

	zap.L().Info("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "api: shutdown")
	}
	return nil
}

// Addr formats a listen address for port.
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
