package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	cache "github.com/patrickmn/go-cache"

	"verdict/internal/audit"
	"verdict/internal/decision"
	"verdict/internal/platform/middleware"
	"verdict/internal/transport/httputil"
	dErrors "verdict/pkg/domain-errors"
	"verdict/pkg/validation"
)

// Service evaluates applications and records audit entries.
type Service interface {
	EvaluateApplication(ctx context.Context, in decision.Input) (*decision.Result, error)
}

// TrailProvider retrieves the audit history for an application.
type TrailProvider interface {
	Trail(ctx context.Context, applicationID string) (*audit.Trail, error)
}

// Handler handles decision endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	trails  TrailProvider

	// replays caches responses by Idempotency-Key so retried submissions
	// return the original decision instead of re-evaluating.
	replays *cache.Cache
}

// New creates a new decision Handler.
func New(service Service, trails TrailProvider, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		trails:  trails,
		replays: cache.New(24*time.Hour, 10*time.Minute),
	}
}

// Register registers the decision routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/applications/{applicationID}/decision", h.handleEvaluate)
	r.Get("/v1/applications/{applicationID}/audit-trail", h.handleAuditTrail)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	applicationID := chi.URLParam(r, "applicationID")
	if applicationID == "" {
		httputil.WriteError(w, dErrors.NewInvalidInput("application_id is required", "application_id"))
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if cached, found := h.replays.Get(replayKey(applicationID, idemKey)); found {
			w.Header().Set("Idempotency-Replay", "true")
			httputil.WriteJSON(w, http.StatusOK, cached.(*decision.Result))
			return
		}
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode evaluate request",
			"request_id", requestID,
			"application_id", applicationID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Normalize()
	if err := validation.Validate(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid evaluate request",
			"request_id", requestID,
			"application_id", applicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.EvaluateApplication(ctx, req.ToInput(applicationID))
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			h.logger.ErrorContext(ctx, "failed to evaluate application",
				"request_id", requestID,
				"application_id", applicationID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	if idemKey != "" {
		h.replays.SetDefault(replayKey(applicationID, idemKey), result)
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	applicationID := chi.URLParam(r, "applicationID")
	if applicationID == "" {
		httputil.WriteError(w, dErrors.NewInvalidInput("application_id is required", "application_id"))
		return
	}

	trail, err := h.trails.Trail(ctx, applicationID)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no audit trail for application"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to load audit trail",
			"request_id", requestID,
			"application_id", applicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if len(trail.Entries) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no audit trail for application"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, formatTrailResponse(trail))
}

func replayKey(applicationID, idemKey string) string {
	return applicationID + "\x00" + idemKey
}
