package metrics

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planprobe/planprobe/internal/store"
	"github.com/planprobe/planprobe/pkg/logging"
)

// Server exposes /metrics, /healthz and /runs over HTTP.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	store      store.Store
	log        *logging.Logger
}

// NewServer builds the HTTP server on the given listen address.
func NewServer(addr string, s store.Store, log *logging.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(s))

	srv := &Server{store: s, log: log}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/healthz", srv.handleHealthz).Methods("GET")
	router.HandleFunc("/runs", srv.handleRuns).Methods("GET")

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

// UseTLS installs a server TLS configuration; ListenAndServe then serves HTTPS.
func (s *Server) UseTLS(cfg *tls.Config) {
	s.httpServer.TLSConfig = cfg
}

// Use installs middleware (tracing, rate limiting) on every route.
func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.router.Use(mw)
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("metrics server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
		"tls":  s.httpServer.TLSConfig != nil,
	})

	var err error
	if s.httpServer.TLSConfig != nil {
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.log.Error("encoding runs response", map[string]interface{}{"error": err.Error()})
	}
}
