/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package profserver provides an optional HTTP server exposing pprof endpoints under /debug.
// It's meant for investigating a running gateway (e.g. goroutines blocked on the admission limiter)
// and must not be reachable from outside.
package profserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/service"
)

const readHeaderTimeout = 5 * time.Second

// ProfServer is a service.Unit serving net/http/pprof handlers.
type ProfServer struct {
	URL        string
	HTTPServer *http.Server
	Logger     log.FieldLogger
	done       chan struct{}
}

var _ service.Unit = (*ProfServer)(nil)

// New creates a new ProfServer.
func New(cfg *Config, logger log.FieldLogger) *ProfServer {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	logger = logger.With(log.String("address", cfg.Address))

	router := chi.NewRouter()
	router.Use(middleware.RequestID(), middleware.Logging(logger))
	router.Mount("/debug", chimiddleware.Profiler())

	return &ProfServer{
		URL:        "http://" + cfg.Address,
		HTTPServer: &http.Server{Addr: cfg.Address, Handler: router, ReadHeaderTimeout: readHeaderTimeout},
		Logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start serves requests until Stop is called. A listen error is sent into fatalError.
func (s *ProfServer) Start(fatalError chan<- error) {
	defer close(s.done)
	s.Logger.Info("starting profiling HTTP server...")
	err := s.HTTPServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.Logger.Info("profiling HTTP server closed")
		return
	}
	s.Logger.Error("profiling HTTP server error", log.Error(err))
	fatalError <- err
}

// Stop closes the server and waits until Start returns.
// Profiles may take tens of seconds to collect, so active requests are always interrupted.
func (s *ProfServer) Stop(_ bool) error {
	s.Logger.Info("closing profiling HTTP server...")
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("profiling HTTP server closing error", log.Error(err))
		return err
	}
	<-s.done
	return nil
}
