// Package server is the thin chi adapter translating HTTP requests into
// Dispatcher calls. It holds no domain logic: every capability invocation
// is resolved, executed, and normalized entirely inside internal/core.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// Config controls HTTP server construction.
type Config struct {
	Log zerolog.Logger
	Dispatcher *dispatcher.Dispatcher
	Port int
	DevMode bool
}

// Server wraps the chi router and the underlying net/http server.
type Server struct {
	router *chi.Mux
	http *http.Server
	log zerolog.Logger
}

// New builds a Server and wires its routes.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log: cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(dispatcher.DefaultTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge: 300,
	}))
	if !cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/api/{module}/{capability}", s.handleDispatch(cfg.Dispatcher))

	s.http = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
		ReadTimeout: 15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// ListenAndServe starts the HTTP server, blocking until it exits or errors.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("listening")
	return s.http.ListenAndServe()
}

// Router exposes the underlying handler, mainly for tests driving requests
// through httptest without binding a real socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown gracefully drains in-flight requests, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// dispatchRequest is the JSON body /api/{module}/{capability} accepts.
type dispatchRequest struct {
	Params map[string]any `json:"params"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	ClientRequestID string `json:"client_request_id,omitempty"`
}

func (s *Server) handleDispatch(d *dispatcher.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID := chi.URLParam(r, "module")
		capabilityID := chi.URLParam(r, "capability")

		var body dispatchRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeResult(w, types.Err(types.NewFailure(types.KindInvalidArgument, "malformed JSON body", nil)))
				return
			}
		}

		var timeout time.Duration
		if body.TimeoutSeconds > 0 {
			timeout = time.Duration(body.TimeoutSeconds) * time.Second
		}

		result := d.Dispatch(r.Context(), dispatcher.Request{
			ModuleID: moduleID,
			CapabilityID: capabilityID,
			Params: body.Params,
			Timeout: timeout,
			ClientRequestID: body.ClientRequestID,
		})
		writeResult(w, result)
	}
}

func writeResult(w http.ResponseWriter, result types.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(result))
	_ = json.NewEncoder(w).Encode(result)
}

// statusFor maps a Result's Failure Kind onto the matching HTTP status,
// mirroring Kind taxonomy at the one surface that needs it.
func statusFor(result types.Result) int {
	if result.OK {
		return http.StatusOK
	}
	switch result.Error.Kind {
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindInvalidArgument:
		return http.StatusBadRequest
	case types.KindTimeout:
		return http.StatusGatewayTimeout
	case types.KindCancelled:
		return 499
	case types.KindUpstream:
		return http.StatusBadGateway
	case types.KindDegenerate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

