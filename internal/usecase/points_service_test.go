package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	fantasymock "github.com/riskibarqy/fantasy-scoring/internal/mocks/domain/fantasy"
	playerstatsmock "github.com/riskibarqy/fantasy-scoring/internal/mocks/domain/playerstats"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPointsService_GetTeamPoints(t *testing.T) {
	ctx := context.Background()
	teamRepo, statsRepo := seededRepos()
	_, err := newTestSettlementService(teamRepo, statsRepo).SettleGameweek(ctx, SettleInput{Gameweek: 1})
	require.NoError(t, err)

	svc := NewPointsService(teamRepo, statsRepo)
	got, err := svc.GetTeamPoints(ctx, "ft-macan")
	require.NoError(t, err)
	require.Equal(t, 60, got.TotalPoints)
	require.Equal(t, 1, got.Gameweeks)
	require.Equal(t, 60, got.HighestPoints)
	require.Len(t, got.History, 1)
}

func TestPointsService_GetTeamGameweekPoints(t *testing.T) {
	ctx := context.Background()
	teamRepo, statsRepo := seededRepos()
	_, err := newTestSettlementService(teamRepo, statsRepo).SettleGameweek(ctx, SettleInput{Gameweek: 1})
	require.NoError(t, err)

	svc := NewPointsService(teamRepo, statsRepo)
	got, err := svc.GetTeamGameweekPoints(ctx, "ft-macan", 1)
	require.NoError(t, err)
	require.True(t, got.Settled)
	require.Equal(t, 60, got.SquadPoints)
	require.Equal(t, 60, got.NetPoints)
	require.Len(t, got.Players, 15)

	for _, row := range got.Players {
		if row.PlayerID == "idn-mid-02" {
			require.Equal(t, 2, row.Multiplier, "vice-captain carries the armband")
			require.Equal(t, 16, row.CountedPoints)
		}
		if row.PlayerID == "idn-fwd-02" {
			require.False(t, row.Played)
			require.Equal(t, 1, row.Multiplier)
		}
	}

	unsettled, err := svc.GetTeamGameweekPoints(ctx, "ft-macan", 5)
	require.NoError(t, err)
	require.False(t, unsettled.Settled)
	require.Zero(t, unsettled.SquadPoints)
}

func TestPointsService_Errors(t *testing.T) {
	ctx := context.Background()
	teamRepo := fantasymock.NewRepository(t)
	statsRepo := playerstatsmock.NewRepository(t)
	svc := NewPointsService(teamRepo, statsRepo)

	teamRepo.On("GetByID", mock.Anything, "ghost").Return(fantasy.Team{}, false, nil).Once()

	_, err := svc.GetTeamPoints(ctx, "ghost")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	_, err = svc.GetTeamPoints(ctx, "  ")
	require.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)

	_, err = svc.GetTeamGameweekPoints(ctx, "ft-garuda", 0)
	require.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
}
