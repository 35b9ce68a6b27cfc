package httpapi

import "net/http"

func (h *Handler) GetTeamPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamPoints")
	defer span.End()

	teamID := r.PathValue("teamID")
	summary, err := h.points.GetTeamPoints(ctx, teamID)
	if err != nil {
		if !isClientError(err) {
			h.logger.ErrorContext(ctx, "get team points failed", "team_id", teamID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) GetTeamGameweekPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamGameweekPoints")
	defer span.End()

	gameweek, err := pathGameweek(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := r.PathValue("teamID")
	points, err := h.points.GetTeamGameweekPoints(ctx, teamID, gameweek)
	if err != nil {
		if !isClientError(err) {
			h.logger.ErrorContext(ctx, "get team gameweek points failed", "team_id", teamID, "gameweek", gameweek, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, points)
}
