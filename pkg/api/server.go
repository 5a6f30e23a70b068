package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		CORSOrigin:     "",
	}
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(cfg ServerConfig, h *Handlers) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	// Concurrency limiter.
	sem := make(chan struct{}, cfg.MaxConcurrent)
	wrap := func(handler http.HandlerFunc) http.HandlerFunc {
		return withMiddleware(handler, sem, cfg, cfg.RequestTimeout)
	}

	routes := []struct {
		path    string
		method  string
		handler http.HandlerFunc
	}{
		{"/health", http.MethodGet, wrap(h.HandleHealth)},
		{"/stats", http.MethodGet, wrap(h.HandleStats)},
		{"/waypoints", http.MethodGet, wrap(h.HandleWaypoints)},
		{"/vehicles", http.MethodGet, wrap(h.HandleVehicles)},
		{"/route", http.MethodPost, wrap(h.HandleRoute)},
		{"/route/points", http.MethodPost, wrap(h.HandlePointRoute)},
		{"/route.geojson", http.MethodGet, wrap(h.HandleRouteGeoJSON)},
		{"/road-route", http.MethodPost, wrap(h.HandleRoadRoute)},
		{"/simulations", http.MethodPost, wrap(h.HandleStartSimulation)},
		{"/simulations/current", http.MethodGet, wrap(h.HandleSimulationState)},
		{"/simulations/current", http.MethodDelete, wrap(h.HandleCancelSimulation)},
		// Long-lived: no limiter slot and no request timeout.
		{"/simulations/stream", http.MethodGet, withMiddleware(h.HandleStream, nil, cfg, 0)},
	}
	for _, rt := range routes {
		api.HandleFunc(rt.path, rt.handler).Methods(rt.method)
		if cfg.CORSOrigin != "" {
			api.HandleFunc(rt.path, preflight(cfg)).Methods(http.MethodOptions)
		}
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return router
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, handlers),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func preflight(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "600")
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusWriter records the response status for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// withMiddleware wraps a handler with logging, recovery, security headers,
// and concurrency limiting. A nil sem disables the limiter and a zero
// timeout disables the per-request deadline.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg ServerConfig, timeout time.Duration) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		w := &statusWriter{ResponseWriter: rw}

		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		// Concurrency limiter.
		if sem != nil {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "service_unavailable", "")
				return
			}
		}

		// Recovery.
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(log.Fields{"panic": rec, "path": r.URL.Path}).Error("Handler panicked")
				writeError(w, http.StatusInternalServerError, "internal_error", "")
			}
		}()

		// Request timeout.
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		handler(w, r.WithContext(ctx))
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   w.status,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Info("Request")
	}
}
