// Package server exposes a running engine's status and metrics over
// HTTP, grounded on the teacher's mux.Router-plus-graceful-shutdown
// server, stripped of its console-specific routes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"fixengine/engine"
)

// StatusSource is the subset of engine.Engine the status handler reads.
type StatusSource interface {
	ConnectionState() engine.ConnectionState
}

// Server serves /status and /metrics for one running session.
type Server struct {
	port       int
	session    StatusSource
	registry   *prometheus.Registry
	router     *mux.Router
	httpServer *http.Server
}

// New builds a Server. registry is the Prometheus registry the engine's
// metrics.Registry was constructed against.
func New(port int, session StatusSource, registry *prometheus.Registry) *Server {
	s := &Server{
		port:     port,
		session:  session,
		registry: registry,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
}

type statusResponse struct {
	ConnectionState string `json:"connection_state"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{ConnectionState: s.session.ConnectionState().String()}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("encode status response: %v", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until ctx is canceled, at which
// point it shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.router.Use(loggingMiddleware)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down status server")
		s.httpServer.Shutdown(context.Background())
	}()

	log.Infof("status server listening on port %d", s.port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
