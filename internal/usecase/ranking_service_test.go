package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	fantasymock "github.com/riskibarqy/fantasy-scoring/internal/mocks/domain/fantasy"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignRanks_Ordering(t *testing.T) {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	teams := []fantasy.Team{
		{ID: "c", TotalPoints: 50, OwnerCountry: "ID", CreatedAt: base},
		{ID: "a", TotalPoints: 70, OwnerCountry: "SG", CreatedAt: base},
		{ID: "d", TotalPoints: 50, OwnerCountry: "id", CreatedAt: base.Add(-time.Hour)},
		{ID: "b", TotalPoints: 50, OwnerCountry: "ID", CreatedAt: base},
		{ID: "e", TotalPoints: 10, OwnerCountry: ""},
	}

	got := AssignRanks(teams)
	want := []fantasy.RankAssignment{
		{TeamID: "a", GlobalRank: 1, CountryRank: 1},
		{TeamID: "d", GlobalRank: 2, CountryRank: 1}, // older team wins the tie
		{TeamID: "b", GlobalRank: 3, CountryRank: 2}, // same age, id breaks the tie
		{TeamID: "c", GlobalRank: 4, CountryRank: 3},
		{TeamID: "e", GlobalRank: 5, CountryRank: 0},
	}
	require.Equal(t, want, got)

	require.Equal(t, "c", teams[0].ID, "input order must not change")
}

func TestAssignRanks_Empty(t *testing.T) {
	require.Empty(t, AssignRanks(nil))
}

func TestAssignRanks_IdempotentAndMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	countries := []string{"ID", "SG", "MY", ""}
	teams := make([]fantasy.Team, 0, 200)
	for i := 0; i < 200; i++ {
		teams = append(teams, fantasy.Team{
			ID:           fmt.Sprintf("team-%03d", i),
			TotalPoints:  rng.Intn(80) - 10,
			OwnerCountry: countries[rng.Intn(len(countries))],
		})
	}

	first := AssignRanks(teams)
	second := AssignRanks(teams)
	require.Equal(t, first, second)

	points := make(map[string]int, len(teams))
	for _, team := range teams {
		points[team.ID] = team.TotalPoints
	}
	for i := range first {
		for j := range first {
			if points[first[i].TeamID] > points[first[j].TeamID] {
				require.Less(t, first[i].GlobalRank, first[j].GlobalRank)
			}
		}
	}
}

func TestRankingService_RecomputeAfterSettlement(t *testing.T) {
	ctx := context.Background()
	teamRepo, statsRepo := seededRepos()
	_, err := newTestSettlementService(teamRepo, statsRepo).SettleGameweek(ctx, SettleInput{Gameweek: 1})
	require.NoError(t, err)

	svc := NewRankingService(teamRepo, logging.NewNop())
	result, err := svc.RecomputeRankings(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, result.TeamCount)
	require.Equal(t, 2, result.CountryCount)

	want := map[string][2]int{
		"ft-singa":  {1, 1},
		"ft-garuda": {2, 1},
		"ft-macan":  {3, 2},
	}
	for teamID, ranks := range want {
		team, _, err := teamRepo.GetByID(ctx, teamID)
		require.NoError(t, err)
		require.Equal(t, ranks[0], team.GlobalRank, teamID)
		require.Equal(t, ranks[1], team.CountryRank, teamID)
	}

	again, err := svc.RecomputeRankings(ctx)
	require.NoError(t, err)
	require.Equal(t, result.Assignments, again.Assignments)
}

func TestRankingService_RankTeamsPersistsEveryAssignment(t *testing.T) {
	teamRepo := fantasymock.NewRepository(t)
	teams := memory.SeedTeams()

	teamRepo.
		On("UpdateRanks", mock.Anything, mock.MatchedBy(func(ranks []fantasy.RankAssignment) bool { return len(ranks) == len(teams) })).
		Return(nil).
		Once()

	svc := NewRankingService(teamRepo, logging.NewNop())
	result, err := svc.RankTeams(context.Background(), teams)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 3)
	// All on zero points, so creation time decides.
	require.Equal(t, "ft-garuda", result.Assignments[0].TeamID)
}

func TestRankingService_Errors(t *testing.T) {
	t.Run("list failure", func(t *testing.T) {
		teamRepo := fantasymock.NewRepository(t)
		teamRepo.On("ListAll", mock.Anything).Return(nil, errors.New("db down")).Once()

		_, err := NewRankingService(teamRepo, nil).RecomputeRankings(context.Background())
		require.ErrorContains(t, err, "db down")
	})

	t.Run("update failure", func(t *testing.T) {
		teamRepo := fantasymock.NewRepository(t)
		teamRepo.On("UpdateRanks", mock.Anything, mock.Anything).Return(errors.New("deadlock")).Once()

		_, err := NewRankingService(teamRepo, nil).RankTeams(context.Background(), memory.SeedTeams())
		require.ErrorContains(t, err, "deadlock")
	})

	t.Run("no teams skips persistence", func(t *testing.T) {
		teamRepo := fantasymock.NewRepository(t)
		teamRepo.On("ListAll", mock.Anything).Return([]fantasy.Team{}, nil).Once()

		result, err := NewRankingService(teamRepo, nil).RecomputeRankings(context.Background())
		require.NoError(t, err)
		require.Zero(t, result.TeamCount)
	})
}
