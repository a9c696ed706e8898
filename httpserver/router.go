/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/restapi"
)

// RouterOpts represents options for creating chi.Router.
type RouterOpts struct {
	ServiceNameInURL string
	APIRoutes        map[APIVersion]APIRoute
	ErrorDomain      string
	HealthCheck      HealthCheck
	MetricsHandler   http.Handler
}

// NewRouter creates a chi.Router with system endpoints and API routes mounted. No middlewares are applied.
func NewRouter(logger log.FieldLogger, opts RouterOpts) chi.Router {
	router := chi.NewRouter()
	configureRouter(router, logger, opts)
	return router
}

func configureRouter(router chi.Router, logger log.FieldLogger, opts RouterOpts) {
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	router.Method(http.MethodGet, "/healthz", NewHealthCheckHandler(opts.HealthCheck))

	apiPrefix := "/api/" + opts.ServiceNameInURL
	for version, routes := range opts.APIRoutes {
		router.Route(apiPrefix+"/v"+strconv.Itoa(version), routes)
	}

	router.NotFound(routeErrorHandler(logger, http.StatusNotFound,
		restapi.NewError(opts.ErrorDomain, restapi.ErrCodeNotFound, restapi.ErrMessageNotFound)))
	router.MethodNotAllowed(routeErrorHandler(logger, http.StatusMethodNotAllowed,
		restapi.NewError(opts.ErrorDomain, restapi.ErrCodeMethodNotAllowed, restapi.ErrMessageMethodNotAllowed)))
}

func routeErrorHandler(logger log.FieldLogger, status int, apiErr *restapi.Error) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		reqLogger := middleware.GetLoggerFromContext(r.Context())
		if reqLogger == nil {
			reqLogger = logger
		}
		restapi.RespondError(rw, status, apiErr, reqLogger)
	}
}

// defaultMiddlewares returns the chain every request passes through, outermost first.
func defaultMiddlewares(
	cfg *Config, logger log.FieldLogger, opts Opts, metricsCollector *middleware.HTTPRequestMetricsCollector,
) []func(http.Handler) http.Handler {
	getRoutePattern := opts.GetRoutePattern
	if getRoutePattern == nil {
		getRoutePattern = GetChiRoutePattern
	}
	mws := []func(http.Handler) http.Handler{
		requestStartTime,
		middleware.RequestID(),
		middleware.LoggingWithOpts(logger, middleware.LoggingOpts{
			RequestStart:      cfg.Log.RequestStart,
			ExcludedEndpoints: cfg.Log.ExcludedEndpoints,
		}),
		middleware.Recovery(opts.ErrorDomain),
		middleware.HTTPRequestMetricsWithOpts(metricsCollector, getRoutePattern,
			middleware.HTTPRequestMetricsOpts{ExcludedEndpoints: systemEndpoints}),
	}
	if cfg.Limits.MaxBodySizeBytes > 0 {
		mws = append(mws, maxBodySize(uint64(cfg.Limits.MaxBodySizeBytes)))
	}
	return mws
}

func requestStartTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ctx := middleware.NewContextWithRequestStartTime(r.Context(), time.Now())
		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}

func maxBodySize(limit uint64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			restapi.SetRequestMaxBodySize(rw, r, limit)
			next.ServeHTTP(rw, r)
		})
	}
}

// GetChiRoutePattern returns the chi route pattern matched by the request, e.g. "/api/docgate/v1/documents".
// Inside middlewares the pattern isn't resolved yet, so the request is matched against the routing tree.
func GetChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}
	matchCtx := chi.NewRouteContext()
	if rctx.Routes.Match(matchCtx, r.Method, path) {
		return matchCtx.RoutePattern()
	}
	return ""
}
