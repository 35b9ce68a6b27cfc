package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/scoring"
)

type TeamPointsSummary struct {
	TeamID        string                   `json:"team_id"`
	Name          string                   `json:"name"`
	LeagueID      string                   `json:"league_id"`
	OwnerCountry  string                   `json:"owner_country,omitempty"`
	TotalPoints   int                      `json:"total_points"`
	GlobalRank    int                      `json:"global_rank"`
	CountryRank   int                      `json:"country_rank"`
	FreeTransfers int                      `json:"free_transfers"`
	Gameweeks     int                      `json:"gameweeks"`
	HighestPoints int                      `json:"highest_points"`
	History       []fantasy.GameweekRecord `json:"history"`
}

type PlayerPointsRow struct {
	PlayerID      string            `json:"player_id"`
	Position      string            `json:"position"`
	IsStarter     bool              `json:"is_starter"`
	IsCaptain     bool              `json:"is_captain"`
	IsViceCaptain bool              `json:"is_vice_captain"`
	Played        bool              `json:"played"`
	Multiplier    int               `json:"multiplier"`
	BasePoints    int               `json:"base_points"`
	CountedPoints int               `json:"counted_points"`
	Breakdown     scoring.Breakdown `json:"breakdown"`
}

type TeamGameweekPoints struct {
	TeamID      string            `json:"team_id"`
	Gameweek    int               `json:"gameweek"`
	SquadPoints int               `json:"squad_points"`
	Settled     bool              `json:"settled"`
	NetPoints   int               `json:"net_points"`
	Penalty     int               `json:"penalty"`
	ChipPlayed  string            `json:"chip_played,omitempty"`
	Players     []PlayerPointsRow `json:"players"`
}

// PointsService serves read models over settled history and stored stats.
type PointsService struct {
	teamRepo  fantasy.Repository
	statsRepo playerstats.Repository
}

func NewPointsService(teamRepo fantasy.Repository, statsRepo playerstats.Repository) *PointsService {
	return &PointsService{
		teamRepo:  teamRepo,
		statsRepo: statsRepo,
	}
}

func (s *PointsService) GetTeamPoints(ctx context.Context, teamID string) (TeamPointsSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsService.GetTeamPoints")
	defer span.End()

	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		recordSpanError(span, err)
		return TeamPointsSummary{}, err
	}

	out := TeamPointsSummary{
		TeamID:        team.ID,
		Name:          team.Name,
		LeagueID:      team.LeagueID,
		OwnerCountry:  team.OwnerCountry,
		TotalPoints:   team.TotalPoints,
		GlobalRank:    team.GlobalRank,
		CountryRank:   team.CountryRank,
		FreeTransfers: team.FreeTransfers,
		Gameweeks:     len(team.History),
		History:       team.History,
	}
	for idx, record := range team.History {
		if idx == 0 || record.Points > out.HighestPoints {
			out.HighestPoints = record.Points
		}
	}
	return out, nil
}

// GetTeamGameweekPoints recomputes the per-player breakdown for one gameweek from the
// current lineup and the stored stats. The net points come from the settled record.
func (s *PointsService) GetTeamGameweekPoints(ctx context.Context, teamID string, gameweek int) (TeamGameweekPoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsService.GetTeamGameweekPoints")
	defer span.End()

	if gameweek <= 0 {
		return TeamGameweekPoints{}, fmt.Errorf("%w: gameweek must be positive, got %d", ErrInvalidInput, gameweek)
	}

	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		recordSpanError(span, err)
		return TeamGameweekPoints{}, err
	}

	stats, err := s.statsRepo.ListByGameweek(ctx, gameweek)
	if err != nil {
		recordSpanError(span, err)
		return TeamGameweekPoints{}, fmt.Errorf("list player stats gameweek=%d: %w", gameweek, err)
	}

	out := TeamGameweekPoints{
		TeamID:   team.ID,
		Gameweek: gameweek,
	}
	for _, record := range team.History {
		if record.Gameweek != gameweek {
			continue
		}
		out.Settled = true
		out.NetPoints = record.Points
		out.Penalty = record.Penalty
		out.ChipPlayed = string(record.ChipPlayed)
		// Score under the chip that was actually played.
		team.ActiveChip = record.ChipPlayed
		break
	}

	evaluation, err := scoring.EvaluateGameweek(team, stats)
	if err != nil {
		return TeamGameweekPoints{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out.SquadPoints = evaluation.Total
	out.Players = make([]PlayerPointsRow, 0, len(evaluation.Players))
	for _, row := range evaluation.Players {
		out.Players = append(out.Players, PlayerPointsRow{
			PlayerID:      row.PlayerID,
			Position:      string(row.Position),
			IsStarter:     row.IsStarter,
			IsCaptain:     row.IsCaptain,
			IsViceCaptain: row.IsViceCaptain,
			Played:        row.Played,
			Multiplier:    row.Multiplier,
			BasePoints:    row.Base,
			CountedPoints: row.Counted,
			Breakdown:     row.Breakdown,
		})
	}
	return out, nil
}

func (s *PointsService) loadTeam(ctx context.Context, teamID string) (fantasy.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fantasy.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	team, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fantasy.Team{}, fmt.Errorf("get fantasy team: %w", err)
	}
	if !exists {
		return fantasy.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return team, nil
}
