/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-docgate/crpt"
	"github.com/acronis/go-docgate/httpserver"
	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/restapi"
	"github.com/acronis/go-docgate/windowlimit"
)

// Error codes and messages of the docgate API.
const (
	ErrCodeUnauthorized         = "unauthorized"
	ErrCodeDownstreamCallFailed = "downstreamCallFailed"
	ErrCodeAdmissionInterrupted = "admissionInterrupted"
	ErrCodeServiceShuttingDown  = "serviceShuttingDown"

	ErrMessageUnauthorized         = "Authorization header with the document signature is required."
	ErrMessageDownstreamCallFailed = "Document submission to CRPT failed."
	ErrMessageAdmissionInterrupted = "Waiting for admission was interrupted."
	ErrMessageServiceShuttingDown  = "Service is shutting down."
)

// DocumentCreator submits documents to CRPT. It's implemented by *crpt.Client.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, doc *crpt.Document, signature string) (string, error)
}

// LimiterSnapshotter returns the current state of the admission limiter. It's implemented by *windowlimit.Limiter.
type LimiterSnapshotter interface {
	Snapshot() windowlimit.Snapshot
}

// LimiterSnapshotResponse is the response body of the limiter endpoint.
type LimiterSnapshotResponse struct {
	Limit       int       `json:"limit"`
	Window      string    `json:"window"`
	Available   int       `json:"available"`
	Waiting     int       `json:"waiting"`
	WindowStart time.Time `json:"windowStart"`
}

// Handler serves the docgate API.
type Handler struct {
	creator     DocumentCreator
	limiter     LimiterSnapshotter
	errorDomain string
}

// NewHandler creates a new Handler.
func NewHandler(creator DocumentCreator, limiter LimiterSnapshotter, errorDomain string) *Handler {
	return &Handler{creator: creator, limiter: limiter, errorDomain: errorDomain}
}

// Routes returns routes of the first API version.
func (h *Handler) Routes() httpserver.APIRoute {
	return func(router chi.Router) {
		router.Post("/documents", h.CreateDocument)
		router.Get("/limiter", h.GetLimiter)
	}
}

// CreateDocument handles POST /documents.
// The request body is a CRPT document, the Authorization header is its signature.
// Unknown document fields are rejected since they would be lost on the way to CRPT.
// The downstream response body is returned as is.
func (h *Handler) CreateDocument(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	signature := r.Header.Get("Authorization")
	if signature == "" {
		restapi.RespondError(rw, http.StatusUnauthorized,
			restapi.NewError(h.errorDomain, ErrCodeUnauthorized, ErrMessageUnauthorized), logger)
		return
	}

	var doc crpt.Document
	if err := restapi.DecodeRequestJSONWithOpts(r, &doc, restapi.DecodeOpts{DisallowUnknownFields: true}); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, h.errorDomain, err, logger)
		return
	}

	respBody, err := h.creator.CreateDocument(r.Context(), &doc, signature)
	if err != nil {
		h.respondCreateDocumentError(rw, err, logger)
		return
	}
	restapi.RespondText(rw, http.StatusOK, respBody, logger)
}

func (h *Handler) respondCreateDocumentError(rw http.ResponseWriter, err error, logger log.FieldLogger) {
	var interruptedErr *windowlimit.InterruptedWaitError
	var statusErr *crpt.UnexpectedStatusError
	switch {
	case errors.As(err, &interruptedErr):
		apiErr := restapi.NewError(h.errorDomain, ErrCodeAdmissionInterrupted, ErrMessageAdmissionInterrupted)
		restapi.RespondError(rw, http.StatusServiceUnavailable, apiErr, logger)
	case errors.Is(err, crpt.ErrClientShutdown):
		apiErr := restapi.NewError(h.errorDomain, ErrCodeServiceShuttingDown, ErrMessageServiceShuttingDown)
		restapi.RespondError(rw, http.StatusServiceUnavailable, apiErr, logger)
	case errors.As(err, &statusErr):
		apiErr := restapi.NewError(h.errorDomain, ErrCodeDownstreamCallFailed, ErrMessageDownstreamCallFailed).
			AddContext("downstreamStatus", statusErr.StatusCode)
		restapi.RespondError(rw, http.StatusBadGateway, apiErr, logger)
	default:
		if logger != nil {
			logger.Error("document submission failed", log.Error(err))
		}
		apiErr := restapi.NewError(h.errorDomain, ErrCodeDownstreamCallFailed, ErrMessageDownstreamCallFailed)
		restapi.RespondError(rw, http.StatusBadGateway, apiErr, logger)
	}
}

// GetLimiter handles GET /limiter.
func (h *Handler) GetLimiter(rw http.ResponseWriter, r *http.Request) {
	snapshot := h.limiter.Snapshot()
	restapi.RespondJSON(rw, LimiterSnapshotResponse{
		Limit:       snapshot.Limit,
		Window:      snapshot.Window.String(),
		Available:   snapshot.Available,
		Waiting:     snapshot.Waiting,
		WindowStart: snapshot.WindowStart,
	}, middleware.GetLoggerFromContext(r.Context()))
}
