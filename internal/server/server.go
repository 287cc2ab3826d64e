// Package server exposes one editing session over HTTP.
//
// Routes:
//
//	GET    /graph                          snapshot of nodes and connections
//	POST   /nodes                          {kind, controls} -> {id}
//	DELETE /nodes/{id}
//	PUT    /nodes/{id}/controls/{name}     {value}
//	POST   /connections                    {source, sourceOutput, target, targetInput}
//	DELETE /connections                    same body
//	GET    /document                       export (JSON, or msgpack via Accept)
//	POST   /document                       import into the session
//	POST   /layout                         run a layout pass
//	GET    /kinds                          node definitions
//	GET    /healthz
//	GET    /metrics                        Prometheus, when a collector is set
//
// Errors are JSON bodies {code, message} with a status derived from the
// error code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodewire/pkg/editor"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/observability/prom"
)

// Options configures a Server.
type Options struct {
	Logger  *log.Logger
	Metrics *prom.Collector // nil disables /metrics

	// RequestTimeout bounds each request, layout included. Zero means 30s.
	RequestTimeout time.Duration
}

// Server serves one editor session.
type Server struct {
	editor  *editor.Editor
	logger  *log.Logger
	metrics *prom.Collector
	timeout time.Duration
	router  chi.Router
}

// New creates a server for ed.
func New(ed *editor.Editor, opts Options) *Server {
	s := &Server{
		editor:  ed,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		timeout: opts.RequestTimeout,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Timeout(s.timeout))
	r.Use(s.sessionHeader)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/graph", s.handleGraph)
	r.Get("/kinds", s.handleKinds)
	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.handleAddNode)
		r.Delete("/{id}", s.handleRemoveNode)
		r.Put("/{id}/controls/{name}", s.handleSetControl)
	})
	r.Post("/connections", s.handleConnect)
	r.Delete("/connections", s.handleDisconnect)
	r.Get("/document", s.handleExport)
	r.Post("/document", s.handleImport)
	r.Post("/layout", s.handleLayout)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "session", s.editor.ID())

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeExternalIO, err, "listen %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "serve")
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

// logRequests logs each request and records it in the metrics collector
// under its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveHTTP(r.Method, route, status, time.Since(start))
		}
		s.logger.Debug("http",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// sessionHeader tags every response with the session id.
func (s *Server) sessionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Nodewire-Session", s.editor.ID())
		next.ServeHTTP(w, r)
	})
}
