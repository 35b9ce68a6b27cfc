package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
)

type settleGameweekRequest struct {
	LeagueID   string `json:"league_id" validate:"omitempty,max=100"`
	MaxWorkers int    `json:"max_workers" validate:"omitempty,min=1,max=64"`
}

type recomputeRankingsRequest struct {
	Gameweek int    `json:"gameweek" validate:"omitempty,min=1"`
	RunID    string `json:"run_id" validate:"omitempty,max=128"`
}

func (h *Handler) SettleGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettleGameweek")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement job is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	gameweek, err := pathGameweek(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req settleGameweekRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.RunSettlement(ctx, usecase.SettleInput{
		Gameweek:   gameweek,
		LeagueID:   req.LeagueID,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "settle gameweek failed",
			"gameweek", gameweek,
			"league_id", req.LeagueID,
			"settled", result.Settlement.SettledCount,
			"failed", result.Settlement.FailedCount,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RecomputeRankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeRankings")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: ranking job is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req recomputeRankingsRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.RecomputeRankings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute rankings failed", "gameweek", req.Gameweek, "run_id", req.RunID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "rankings recomputed",
		"gameweek", req.Gameweek,
		"run_id", req.RunID,
		"teams", result.TeamCount,
		"countries", result.CountryCount,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}
