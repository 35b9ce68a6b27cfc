package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
	qb "github.com/riskibarqy/fantasy-scoring/internal/platform/querybuilder"
)

type playerGameweekStatsRow struct {
	PlayerID      string `db:"player_public_id"`
	Gameweek      int    `db:"gameweek"`
	FixtureID     string `db:"fixture_public_id"`
	MinutesPlayed int    `db:"minutes_played"`
	Goals         int    `db:"goals"`
	Assists       int    `db:"assists"`
	CleanSheet    bool   `db:"clean_sheet"`
	Saves         int    `db:"saves"`
	PenaltySaved  bool   `db:"penalty_saved"`
	PenaltyMissed bool   `db:"penalty_missed"`
	OwnGoal       bool   `db:"own_goal"`
	YellowCard    bool   `db:"yellow_card"`
	RedCard       bool   `db:"red_card"`
	GoalsConceded int    `db:"goals_conceded"`
}

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

func (r *PlayerStatsRepository) ListByGameweek(ctx context.Context, gameweek int) (map[string]playerstats.MatchStats, error) {
	query, args, err := qb.Select(
		"player_public_id",
		"gameweek",
		"fixture_public_id",
		"minutes_played",
		"goals",
		"assists",
		"clean_sheet",
		"saves",
		"penalty_saved",
		"penalty_missed",
		"own_goal",
		"yellow_card",
		"red_card",
		"goals_conceded",
	).From("player_gameweek_stats").
		Where(
			qb.Eq("gameweek", gameweek),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player gameweek stats query: %w", err)
	}

	var rows []playerGameweekStatsRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player gameweek stats: %w", err)
	}

	out := make(map[string]playerstats.MatchStats, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.toDomain()
	}
	return out, nil
}

func (row playerGameweekStatsRow) toDomain() playerstats.MatchStats {
	return playerstats.MatchStats{
		PlayerID:      row.PlayerID,
		Gameweek:      row.Gameweek,
		FixtureID:     row.FixtureID,
		MinutesPlayed: row.MinutesPlayed,
		Goals:         row.Goals,
		Assists:       row.Assists,
		CleanSheet:    row.CleanSheet,
		Saves:         row.Saves,
		PenaltySaved:  row.PenaltySaved,
		PenaltyMissed: row.PenaltyMissed,
		OwnGoal:       row.OwnGoal,
		YellowCard:    row.YellowCard,
		RedCard:       row.RedCard,
		GoalsConceded: row.GoalsConceded,
	}
}
