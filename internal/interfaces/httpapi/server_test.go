package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/id"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
	"github.com/stretchr/testify/require"
)

const testJobToken = "job-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	statsRepo := memory.NewPlayerStatsRepository(memory.SeedPlayerStats())

	settlement := usecase.NewSettlementService(teamRepo, statsRepo, id.NewPrefixedGenerator("settle"),
		usecase.SettlementServiceConfig{DefaultWorkers: 2}, logger)
	ranking := usecase.NewRankingService(teamRepo, logger)
	jobs := usecase.NewGameweekJobService(settlement, ranking, nil, logger)
	points := usecase.NewPointsService(teamRepo, statsRepo)

	return NewRouter(NewHandler(jobs, points, logger), logger, []string{"*"}, testJobToken)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, withToken bool) (*httptest.ResponseRecorder, googleResponseEnvelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		req.Header.Set(internalJobTokenHeader, testJobToken)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope googleResponseEnvelope
	if rec.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope), "body=%s", rec.Body.String())
	}
	return rec, envelope
}

func decodeData(t *testing.T, envelope googleResponseEnvelope, dst any) {
	t.Helper()
	raw, err := sonic.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(raw, dst))
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)
	rec, envelope := doRequest(t, router, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, envelope.Error)
}

func TestRouter_InternalRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doRequest(t, router, http.MethodPost, "/v1/internal/gameweeks/1/settle", "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, envelope.Error)

	rec, _ = doRequest(t, router, http.MethodPost, usecase.RankingRecomputeJobPath, "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SettleGameweekThenRerun(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doRequest(t, router, http.MethodPost, "/v1/internal/gameweeks/1/settle", `{"max_workers":3}`, true)
	require.Equal(t, http.StatusOK, rec.Code, "body=%s", rec.Body.String())

	var first usecase.GameweekJobResult
	decodeData(t, envelope, &first)
	require.Equal(t, 1, first.Settlement.Gameweek)
	require.Equal(t, 3, first.Settlement.TeamCount)
	require.Equal(t, 3, first.Settlement.SettledCount)
	require.Zero(t, first.Settlement.FailedCount)
	require.True(t, strings.HasPrefix(first.Settlement.RunID, "settle-"), "run id %q", first.Settlement.RunID)
	require.Equal(t, "inline", first.RankingMode)
	require.NotNil(t, first.Ranking)
	require.Equal(t, 3, first.Ranking.TeamCount)

	rec, envelope = doRequest(t, router, http.MethodPost, "/v1/internal/gameweeks/1/settle", "", true)
	require.Equal(t, http.StatusOK, rec.Code, "body=%s", rec.Body.String())

	var second usecase.GameweekJobResult
	decodeData(t, envelope, &second)
	require.Zero(t, second.Settlement.SettledCount)
	require.Equal(t, 3, second.Settlement.SkippedCount)

	rec, envelope = doRequest(t, router, http.MethodGet, "/v1/teams/ft-garuda/points", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary usecase.TeamPointsSummary
	decodeData(t, envelope, &summary)
	require.Equal(t, "ft-garuda", summary.TeamID)
	require.Equal(t, 1, summary.Gameweeks)
	require.Len(t, summary.History, 1)
	require.Equal(t, summary.History[0].Points, summary.TotalPoints)
	require.Positive(t, summary.GlobalRank)
	require.Positive(t, summary.CountryRank)

	rec, envelope = doRequest(t, router, http.MethodGet, "/v1/teams/ft-garuda/gameweeks/1/points", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var gw usecase.TeamGameweekPoints
	decodeData(t, envelope, &gw)
	require.True(t, gw.Settled)
	require.Equal(t, summary.TotalPoints, gw.NetPoints)
	require.NotEmpty(t, gw.Players)
}

func TestRouter_SettleRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "non numeric gameweek", path: "/v1/internal/gameweeks/abc/settle"},
		{name: "zero gameweek", path: "/v1/internal/gameweeks/0/settle"},
		{name: "unknown field", path: "/v1/internal/gameweeks/1/settle", body: `{"workers":3}`},
		{name: "workers out of range", path: "/v1/internal/gameweeks/1/settle", body: `{"max_workers":500}`},
		{name: "malformed json", path: "/v1/internal/gameweeks/1/settle", body: `{"max_workers":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envelope := doRequest(t, router, http.MethodPost, tt.path, tt.body, true)
			require.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", rec.Body.String())
			require.NotNil(t, envelope.Error)
			require.Equal(t, "INVALID_ARGUMENT", envelope.Error.Status)
		})
	}
}

func TestRouter_RecomputeRankings(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doRequest(t, router, http.MethodPost, usecase.RankingRecomputeJobPath, `{"gameweek":1,"run_id":"settle-abc"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, "body=%s", rec.Body.String())

	var result usecase.RankingResult
	decodeData(t, envelope, &result)
	require.Equal(t, 3, result.TeamCount)
	require.Equal(t, 2, result.CountryCount)
}

func TestRouter_TeamPointsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doRequest(t, router, http.MethodGet, "/v1/teams/ft-unknown/points", "", false)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, envelope.Error)
	require.Equal(t, "NOT_FOUND", envelope.Error.Status)
}
