package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lingocache/internal/model"
	"lingocache/internal/transport/rest/middleware"
)

// Evaluator is the orchestrator as seen by HTTP
type Evaluator interface {
	Evaluate(ctx context.Context, contentID, rawInput string) (*model.EvaluationResult, error)
}

// EvaluateRequest is the body of POST /v1/evaluations
type EvaluateRequest struct {
	ContentID string `json:"contentId" validate:"required,max=128"`
	Input     string `json:"input" validate:"required"`
}

// EvaluationHandler handles evaluation endpoints
type EvaluationHandler struct {
	svc    Evaluator
	logger *slog.Logger
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(svc Evaluator, logger *slog.Logger) *EvaluationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{svc: svc, logger: logger}
}

// Evaluate handles POST /v1/evaluations
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	res, err := h.svc.Evaluate(r.Context(), req.ContentID, req.Input)
	if err != nil {
		var inputErr *model.InputError
		switch {
		case errors.As(err, &inputErr):
			writeError(w, http.StatusBadRequest, inputErr.Reason)
		case errors.Is(err, model.ErrInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusRequestTimeout, "request cancelled")
		default:
			h.logger.Error("evaluation failed",
				"clientId", middleware.GetClientID(r.Context()),
				"contentId", req.ContentID,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	h.logger.Debug("evaluation served",
		"clientId", middleware.GetClientID(r.Context()),
		"contentId", req.ContentID,
		"responseSource", res.ResponseSource,
		"score", res.Score,
	)
	writeJSON(w, http.StatusOK, res)
}
