// Package web serves the chain reports as web pages.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/etnz/tradechain"
)

// Config holds the server configuration.
type Config struct {
	Addr       string
	Dir        string // directory scanned for broker activity files
	ConfigPath string // chain config file
	Log        zerolog.Logger
}

// Server serves the reconciled chain reports. The activity files and the
// config are reloaded on every request, so edits show up on refresh.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	dir        string
	configPath string
}

// New creates the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		log:        cfg.Log,
		dir:        cfg.Dir,
		configPath: cfg.ConfigPath,
	}

	s.router = chi.NewRouter()
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleHome)
	s.router.Get("/chains", s.handleChains)
	s.router.Get("/chains/{id}", s.handleChain)
	s.router.Get("/transactions", s.handleTransactions)
	s.router.Get("/positions", s.handlePositions)
	s.router.Get("/stats", s.handleStats)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ServeHTTP makes the server usable as a plain handler in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// consolidated reloads the activity and the config and reconciles them.
func (s *Server) consolidated() (*tradechain.Consolidation, error) {
	txns, positions, issues, err := tradechain.LoadActivity(s.dir)
	if err != nil {
		return nil, err
	}
	cfg, err := tradechain.LoadConfig(s.configPath)
	if err != nil {
		return nil, err
	}
	res, err := tradechain.Consolidate(txns, positions, cfg, nil)
	if err != nil {
		return nil, err
	}
	for _, issue := range append(issues, res.Issues...) {
		s.log.Warn().Err(issue).Msg("reconciliation issue")
	}
	return res, nil
}
