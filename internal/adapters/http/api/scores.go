// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	service "github.com/mindgauge/mindgauge/internal/app"
	"github.com/mindgauge/mindgauge/internal/domain/dedupe"
	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// ScoreDependencies defines the interface for score submission dependencies.
type ScoreDependencies interface {
	dedupe.Deduper
	Record(ctx context.Context, playerID, gameID string, rawScore float64) (model.PlayResult, error)
}

// ScoresHandler handles score submissions.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

func (req scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(req.GameID) == "":
		return fmt.Errorf("%w: missing game_id", ErrBadRequest)
	case req.RawScore == nil:
		return fmt.Errorf("%w: missing raw_score", ErrBadRequest)
	case math.IsNaN(*req.RawScore) || math.IsInf(*req.RawScore, 0):
		return fmt.Errorf("%w: raw_score must be finite", ErrBadRequest)
	}
	return nil
}

// HandlePostScore handles POST /api/scores requests.
//
// An optional submission_id makes retries idempotent: the second POST
// with the same id acknowledges without recording a second play.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Idempotency check - mark as seen first
	if req.SubmissionID != "" && h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	result, err := h.deps.Record(r.Context(), req.PlayerID, req.GameID, *req.RawScore)
	if err != nil {
		// Roll back the "seen" status so the client can retry.
		if req.SubmissionID != "" {
			h.deps.Unrecord(r.Context(), req.SubmissionID)
		}
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, scoreResponse{Status: "recorded", Result: result})
}
