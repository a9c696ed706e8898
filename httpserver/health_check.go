/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/restapi"
)

// StatusClientClosedRequest is the non-standard (Nginx) status for requests the client gave up on.
const StatusClientClosedRequest = 499

// HealthCheckComponentName names a checked component (e.g. "limiter").
type HealthCheckComponentName = string

// HealthCheckStatus is the status of a single component.
type HealthCheckStatus int

// Health-check statuses.
const (
	HealthCheckStatusOK HealthCheckStatus = iota
	HealthCheckStatusFail
)

// HealthCheckResult maps components to their statuses.
type HealthCheckResult = map[HealthCheckComponentName]HealthCheckStatus

// HealthCheck reports statuses of the service components.
// An error means the check itself could not be done.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

// HealthCheckHandler serves /healthz.
// It responds with 200 if all components are OK and with 503 if any is failed.
type HealthCheckHandler struct {
	check HealthCheck
}

// NewHealthCheckHandler creates a new HealthCheckHandler. A nil fn reports no components.
func NewHealthCheckHandler(fn HealthCheck) *HealthCheckHandler {
	if fn == nil {
		fn = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}
	return &HealthCheckHandler{check: fn}
}

func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	result, err := h.check(r.Context())
	if err != nil {
		if logger != nil {
			logger.Error("error while checking health", log.Error(err))
		}
		rw.WriteHeader(healthCheckErrorStatus(err))
		return
	}

	status := http.StatusOK
	data := healthCheckResponseData{Components: make(map[string]bool, len(result))}
	for name, componentStatus := range result {
		ok := componentStatus == HealthCheckStatusOK
		data.Components[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	restapi.RespondCodeAndJSON(rw, status, data, logger)
}

func healthCheckErrorStatus(err error) int {
	if errors.Is(err, context.Canceled) {
		return StatusClientClosedRequest
	}
	return http.StatusInternalServerError
}
