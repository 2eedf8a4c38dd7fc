// Package server exposes the aggregation service over HTTP for the browser UI.
//
// Routes:
//
//	GET /healthz                          liveness
//	GET /api/v1/environment               active profile
//	PUT /api/v1/environment               switch profile, body {"name": "..."}
//	GET /api/v1/stats                     provider, cache and upstream counters
//	GET /api/v1/brief?company=&domain=    concurrent meeting brief
//	GET /api/v1/{provider}?q=             one provider, e.g. /api/v1/news?q=Acme
//
// Provider responses are {"kind": "live"|"fallback", "payload": ...}. Errors
// are {"code": ..., "error": ...} with a matching HTTP status.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/service"
)

// RequestIDHeader carries the request correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// Options configure a [Server].
type Options struct {
	// Counters backs /api/v1/stats. Nil disables the route.
	Counters *observability.Counters

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	svc      *service.Service
	counters *observability.Counters
	logger   *log.Logger
	router   chi.Router
}

// New creates a server for svc.
func New(svc *service.Service, opts Options) *Server {
	s := &Server{svc: svc, counters: opts.Counters, logger: opts.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/environment", s.handleEnvironment)
		r.Put("/environment", s.handleSwitchEnvironment)
		if s.counters != nil {
			r.Get("/stats", s.handleStats)
		}
		r.Get("/brief", s.handleBrief)
		r.Get("/{provider}", s.handleProvider)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "environment", s.svc.Profile().Name)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) handleEnvironment(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Profile())
}

func (s *Server) handleSwitchEnvironment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if err := s.svc.SwitchEnvironment(body.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Profile())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.counters.Snapshot())
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	brief, err := s.svc.Brief(r.Context(), q.Get("company"), q.Get("domain"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidQuery, "missing query parameter q"))
		return
	}
	res, err := s.svc.Fetch(r.Context(), provider, query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// status maps an error code onto an HTTP status.
func status(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeUnknownProvider:
		return http.StatusNotFound
	case errs.ErrCodeInvalidQuery, errs.ErrCodeInvalidDomain, errs.ErrCodeInvalidInput, errs.ErrCodeConfiguration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "id", w.Header().Get(RequestIDHeader), "err", err)
	}
	errCode := errs.GetCode(err)
	if errCode == "" {
		errCode = errs.ErrCodeInternal
	}
	writeJSON(w, code, map[string]string{"code": string(errCode), "error": errs.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID propagates an incoming X-Request-ID or assigns a new UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"id", w.Header().Get(RequestIDHeader),
		)
	})
}
