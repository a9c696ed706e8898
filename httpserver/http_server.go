/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/service"
)

// systemEndpoints are served by every server and excluded from the request metrics.
var systemEndpoints = []string{"/metrics", "/healthz"}

// APIVersion is the number in the "/v{N}" segment of API routes.
type APIVersion = int

// APIRoute mounts handlers of one API version.
type APIRoute = func(router chi.Router)

// HTTPRequestMetricsOpts configures the inbound request metrics.
type HTTPRequestMetricsOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels
}

// Opts configures HTTPServer. API routes are mounted at "/api/{ServiceNameInURL}/v{APIVersion}".
type Opts struct {
	ServiceNameInURL string
	APIRoutes        map[APIVersion]APIRoute

	// ErrorDomain is put into the error responses produced by the server itself (404, 405, panics).
	ErrorDomain string

	// HealthCheck backs "/healthz". Without it the endpoint always responds 200.
	HealthCheck HealthCheck

	// MetricsHandler replaces promhttp.Handler() at "/metrics".
	MetricsHandler     http.Handler
	HTTPRequestMetrics HTTPRequestMetricsOpts
	GetRoutePattern    middleware.RoutePatternGetterFunc

	// Listener is used instead of listening on Config.Address.
	Listener net.Listener
}

// HTTPServer is the inbound side of the gateway: an http.Server with the chi router,
// the default middlewares and the system endpoints. It's a service.Unit.
type HTTPServer struct {
	HTTPServer      *http.Server
	HTTPRouter      chi.Router
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	listener         net.Listener
	port             atomic.Int32
	httpServerDone   atomic.Value
	metricsCollector *middleware.HTTPRequestMetricsCollector
}

var _ service.Unit = (*HTTPServer)(nil)
var _ service.MetricsRegisterer = (*HTTPServer)(nil)

// New creates HTTPServer. Requests pass the request ID, logging, recovery, metrics
// and body size limiting middlewares.
func New(cfg *Config, logger log.FieldLogger, opts Opts) *HTTPServer { //nolint: gocritic // hugeParam
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	metricsCollector := middleware.NewHTTPRequestMetricsCollectorWithOpts(middleware.HTTPRequestMetricsCollectorOpts{
		Namespace:       opts.HTTPRequestMetrics.Namespace,
		DurationBuckets: opts.HTTPRequestMetrics.DurationBuckets,
		ConstLabels:     opts.HTTPRequestMetrics.ConstLabels,
	})

	router := chi.NewRouter()
	router.Use(defaultMiddlewares(cfg, logger, opts, metricsCollector)...)
	configureRouter(router, logger, RouterOpts{
		ServiceNameInURL: opts.ServiceNameInURL,
		APIRoutes:        opts.APIRoutes,
		ErrorDomain:      opts.ErrorDomain,
		HealthCheck:      opts.HealthCheck,
		MetricsHandler:   opts.MetricsHandler,
	})

	return &HTTPServer{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			WriteTimeout:      time.Duration(cfg.Timeouts.Write),
			ReadTimeout:       time.Duration(cfg.Timeouts.Read),
			ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
			IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
			Handler:           router,
		},
		HTTPRouter:       router,
		Logger:           logger,
		ShutdownTimeout:  time.Duration(cfg.Timeouts.Shutdown),
		listener:         opts.Listener,
		metricsCollector: metricsCollector,
	}
}

// Start serves requests until Stop is called. It blocks, so it's run in a separate goroutine.
// Listen and serve errors are sent into fatalError.
func (s *HTTPServer) Start(fatalError chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.httpServerDone.Store(done)

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	logger.Info("starting HTTP server...")

	listener, err := s.listen()
	if err != nil {
		logger.Error("HTTP server error", log.Error(err))
		fatalError <- err
		return
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(tcpAddr.Port))
	}

	err = s.HTTPServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("HTTP server closed")
		return
	}
	logger.Error("HTTP server error", log.Error(err))
	fatalError <- err
}

func (s *HTTPServer) listen() (net.Listener, error) {
	if s.listener != nil {
		return s.listener, nil
	}
	return net.Listen("tcp", s.HTTPServer.Addr)
}

// Stop stops the server and waits until Start returns.
// A graceful stop lets in-flight requests finish within ShutdownTimeout.
// Requests still running after it (e.g. waiting for admission) are interrupted by closing their connections.
func (s *HTTPServer) Stop(gracefully bool) error {
	defer s.waitServeDone()

	if gracefully {
		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		s.Logger.Info("shutting down HTTP server gracefully...", log.Duration("timeout", s.ShutdownTimeout))
		err := s.HTTPServer.Shutdown(ctx)
		if err == nil {
			s.Logger.Info("HTTP server shut down")
			return nil
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server graceful shutdown error", log.Error(err))
			return err
		}
		s.Logger.Warn("HTTP server graceful shutdown timed out, closing active connections")
	}

	s.Logger.Info("closing HTTP server...")
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("HTTP server closing error", log.Error(err))
		return err
	}
	return nil
}

func (s *HTTPServer) waitServeDone() {
	if done, ok := s.httpServerDone.Load().(chan struct{}); ok && done != nil {
		<-done
	}
}

// MustRegisterMetrics registers metrics in Prometheus client and panics if any error occurs.
func (s *HTTPServer) MustRegisterMetrics() {
	s.metricsCollector.MustRegister()
}

// UnregisterMetrics unregisters metrics in Prometheus client.
func (s *HTTPServer) UnregisterMetrics() {
	s.metricsCollector.Unregister()
}

// GetPort returns the port the server listens on. It's 0 until the server is started.
func (s *HTTPServer) GetPort() int {
	return int(s.port.Load())
}
