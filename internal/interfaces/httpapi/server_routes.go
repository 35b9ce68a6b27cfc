package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPointsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams/{teamID}/points", handler.GetTeamPoints)
	mux.HandleFunc("GET /v1/teams/{teamID}/gameweeks/{gameweek}/points", handler.GetTeamGameweekPoints)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/gameweeks/{gameweek}/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SettleGameweek)))
	mux.Handle("POST "+usecase.RankingRecomputeJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecomputeRankings)))
}
