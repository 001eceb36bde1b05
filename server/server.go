// Package server exposes the aircons over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	remoaircon "github.com/eivy/remo-aircon"
)

// Service is what the HTTP handlers need from the bridge.
type Service interface {
	States() []remoaircon.State
	Get(id string) (remoaircon.State, error)
	Apply(ctx context.Context, id string, kind remoaircon.CommandKind, value string) error
	LastUpdate() time.Time
}

// Connectivity is a connection the healthcheck depends on, e.g. the MQTT
// client.
type Connectivity interface {
	IsConnected() bool
}

type Server struct {
	port        uint
	httpLog     bool
	metricsPath string
	// maxAge is how old the last update may get before the healthcheck fails.
	maxAge  time.Duration
	service Service
	metrics http.Handler
	broker  Connectivity
}

type Option func(*Server)

// WithBroker fails the healthcheck while broker is disconnected.
func WithBroker(broker Connectivity) Option {
	return func(s *Server) {
		s.broker = broker
	}
}

// NewServer returns the HTTP server. metrics serves the Prometheus registry
// at the configured path.
func NewServer(cfg remoaircon.Config, service Service, metrics http.Handler, opts ...Option) *http.Server {
	s := &Server{
		port:        cfg.HTTP.Port,
		httpLog:     cfg.HTTP.Log,
		metricsPath: cfg.Metrics.Path,
		maxAge:      3 * cfg.PollInterval,
		service:     service,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
