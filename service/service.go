/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-docgate/log"
)

// DefaultShutdownSignals are OS signals that make the service stop gracefully.
var DefaultShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// Opts configures Service. An empty ShutdownSignals makes the service ignore OS signals.
type Opts struct {
	ShutdownSignals []os.Signal
}

// Service runs a single (usually composite) Unit for the whole process lifetime.
// The unit's metrics are registered for the time it runs.
type Service struct {
	Unit   Unit
	Logger log.FieldLogger
	Opts   Opts

	// Signals receives Opts.ShutdownSignals. Sending to it directly also stops the service.
	Signals chan os.Signal
}

// New creates a Service that stops on SIGINT or SIGTERM.
func New(logger log.FieldLogger, unit Unit) *Service {
	return NewWithOpts(logger, unit, Opts{ShutdownSignals: DefaultShutdownSignals})
}

// NewWithOpts creates a Service.
func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Service{Unit: unit, Logger: logger, Opts: opts, Signals: make(chan os.Signal, 1)}
}

// Start runs the service until a shutdown signal or a fatal error of the unit.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext runs the service until a shutdown signal, a fatal error of the unit or ctx cancellation.
// The unit is stopped gracefully unless it failed.
func (s *Service) StartContext(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}
	if len(s.Opts.ShutdownSignals) > 0 {
		signal.Notify(s.Signals, s.Opts.ShutdownSignals...)
		defer signal.Stop(s.Signals)
	}

	fatalErr := make(chan error, 1)
	go s.Unit.Start(fatalErr)

	if err := s.waitForStop(ctx, fatalErr); err != nil {
		s.Logger.Error("service fatal error", log.Error(err))
		return fmt.Errorf("fatal error: %w", err)
	}
	if err := s.Unit.Stop(true); err != nil {
		s.Logger.Error("service stopping error", log.Error(err))
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	s.Logger.Info("service stopped")
	return nil
}

// waitForStop returns the fatal error of the unit or nil when the service is asked to stop.
func (s *Service) waitForStop(ctx context.Context, fatalErr <-chan error) error {
	select {
	case err := <-fatalErr:
		return err
	case sig := <-s.Signals:
		s.Logger.Info("shutdown signal received, stopping service", log.String("signal", sig.String()))
	case <-ctx.Done():
		s.Logger.Info("context is done, stopping service")
	}
	return nil
}
