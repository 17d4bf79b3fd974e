package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP API under a tomb. Killing the tomb shuts the
// listener down gracefully.
type Server struct {
	tomb.Tomb

	httpServer *http.Server
	listener   net.Listener
	logger     zerolog.Logger
}

// Start listens on addr and serves handler until Stop is called or the
// server fails.
func Start(addr string, handler http.Handler, logger zerolog.Logger) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		listener: l,
		logger:   logger.With().Str("pkg", "server").Logger(),
	}

	s.Go(s.serve)
	s.Go(func() error {
		<-s.Dying()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		return s.httpServer.Shutdown(ctx)
	})

	s.logger.Info().Str("addr", l.Addr().String()).Msg("API server is running")
	return s, nil
}

func (s *Server) serve() error {
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	s.logger.Error().Err(err).Msg("serve failed")
	return err
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop shuts the server down and waits for in-flight requests.
func (s *Server) Stop() error {
	s.Kill(nil)
	return s.Wait()
}

// Run serves until ctx is done, then stops the server.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return s.Stop()
	case <-s.Dying():
		return s.Wait()
	}
}
