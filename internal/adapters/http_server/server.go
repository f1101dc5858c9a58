package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const defaultRequestTimeout = 15 * time.Second

type Server struct {
	mux     *chi.Mux
	timeout time.Duration
}

type Option func(*Server)

// WithRequestTimeout bounds every request; it should exceed the place lookup timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{mux: chi.NewRouter(), timeout: defaultRequestTimeout}
	for _, o := range opts {
		o(s)
	}

	// middlewares must be registered before any route
	s.mux.Use(chimw.RealIP)
	s.mux.Use(chimw.RequestID)
	s.mux.Use(chimw.Recoverer)
	// liveness probes answer before metrics and request logging
	s.mux.Use(chimw.Heartbeat("/healthz"))
	s.mux.Use(Timeout(s.timeout))
	s.mux.Use(Metrics)
	s.mux.Use(Logger(log.Logger))

	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
