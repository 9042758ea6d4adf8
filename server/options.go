package server

import (
	"time"

	"github.com/rs/zerolog"
)

// Option is a configuration function for a Server.
type Option func(*Server)

// WithLogger sets the logger used for route registration and access logs.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAssets sets the source of htmlTemplate templates.
func WithAssets(assets AssetSource) Option {
	return func(s *Server) {
		s.assets = assets
	}
}

// WithPort overrides the port declared by the program.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithHost sets the interface to listen on. Empty means all interfaces.
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithTimeout sets the header read timeout and the graceful shutdown
// deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}
