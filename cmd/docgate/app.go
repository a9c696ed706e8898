/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"

	"github.com/acronis/go-docgate/crpt"
	"github.com/acronis/go-docgate/httpclient"
	"github.com/acronis/go-docgate/httpserver"
	"github.com/acronis/go-docgate/internal/api"
	"github.com/acronis/go-docgate/internal/libinfo"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/profserver"
	"github.com/acronis/go-docgate/restapi"
	"github.com/acronis/go-docgate/service"
	"github.com/acronis/go-docgate/windowlimit"
)

const (
	serviceName      = "docgate"
	errorDomain      = "DocGate"
	metricsNamespace = "docgate"
	envVarsPrefix    = "DOCGATE"
)

// clientMetrics registers metrics of the CRPT client within the service lifecycle.
type clientMetrics struct {
	httpClient *httpclient.PrometheusMetricsCollector
	limiter    *windowlimit.PrometheusMetrics
}

func (m *clientMetrics) MustRegisterMetrics() {
	restapi.MustInitAndRegisterMetrics(metricsNamespace)
	m.httpClient.MustRegister()
	m.limiter.MustRegister()
}

func (m *clientMetrics) UnregisterMetrics() {
	m.limiter.Unregister()
	m.httpClient.Unregister()
	restapi.UnregisterMetrics()
}

type app struct {
	client     *crpt.Client
	httpServer *httpserver.HTTPServer
	unit       *service.CompositeUnit
}

// newApp builds all service units. They are stopped in reverse order:
// the HTTP server first, then the stats worker, and the CRPT client last.
func newApp(cfg *AppConfig, logger log.FieldLogger) (*app, error) {
	metrics := &clientMetrics{
		httpClient: httpclient.NewPrometheusMetricsCollector(metricsNamespace),
		limiter:    windowlimit.NewPrometheusMetricsWithOpts(windowlimit.PrometheusMetricsOpts{Namespace: metricsNamespace}),
	}

	client, err := crpt.NewClient(cfg.CRPT, crpt.ClientOpts{
		Logger:            logger,
		UserAgent:         libinfo.UserAgent(),
		HTTPClientMetrics: metrics.httpClient,
		LimiterMetrics:    metrics.limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("create crpt client: %w", err)
	}

	clientUnit := service.NewWorkerUnitWithOpts(service.WorkerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		client.Shutdown()
		return nil
	}), service.WorkerUnitOpts{MetricsRegisterer: metrics})
	units := []service.Unit{clientUnit}

	if cfg.Stats.Interval > 0 {
		statsWorker := service.NewPeriodicWorker(newLimiterStatsWorker(client.Limiter(), logger), cfg.Stats.Interval, logger)
		units = append(units, service.NewWorkerUnit(statsWorker))
	}

	if cfg.ProfServer.Enabled {
		units = append(units, profserver.New(cfg.ProfServer, logger))
	}

	limiter := client.Limiter()
	handler := api.NewHandler(client, limiter, errorDomain)
	httpServer := httpserver.New(cfg.Server, logger, httpserver.Opts{
		ServiceNameInURL: serviceName,
		ErrorDomain:      errorDomain,
		APIRoutes:        map[httpserver.APIVersion]httpserver.APIRoute{1: handler.Routes()},
		HealthCheck: func(ctx context.Context) (httpserver.HealthCheckResult, error) {
			return httpserver.HealthCheckResult{"limiter": httpserver.HealthCheckStatusOK}, nil
		},
		HTTPRequestMetrics: httpserver.HTTPRequestMetricsOpts{
			Namespace:   metricsNamespace,
			ConstLabels: libinfo.AddPrometheusVersionLabel(nil),
		},
	})
	units = append(units, httpServer)

	return &app{client: client, httpServer: httpServer, unit: service.NewSequentialCompositeUnit(units...)}, nil
}

func newLimiterStatsWorker(limiter *windowlimit.Limiter, logger log.FieldLogger) service.Worker {
	return service.WorkerFunc(func(ctx context.Context) error {
		snapshot := limiter.Snapshot()
		logger.Info("admission limiter stats",
			log.Int("limit", snapshot.Limit),
			log.Duration("window", snapshot.Window),
			log.Int("available", snapshot.Available),
			log.Int("waiting", snapshot.Waiting),
			log.Time("window_start", snapshot.WindowStart),
		)
		return nil
	})
}
