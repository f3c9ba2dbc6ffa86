package infra

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const maxHeaderBytes = 64 << 10

// HTTPServer runs the API router with the timeouts from Config.
type HTTPServer struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewHTTPServer builds the API server. net/http's own errors (TLS handshakes,
// panics outside the router) are written to logger.
func NewHTTPServer(cfg *Config, handler http.Handler, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
			ErrorLog:          log.New(logger.With().Str("component", "net/http").Logger(), "", 0),
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then lets in-flight requests finish for
// at most grace. A clean stop returns nil.
func (s *HTTPServer) Run(ctx context.Context, grace time.Duration) error {
	served := make(chan error, 1)
	go func() { served <- s.srv.ListenAndServe() }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info().Dur("grace", grace).Msg("draining http requests")
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := s.srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	return nil
}
