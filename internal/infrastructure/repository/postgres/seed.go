package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo teams and gameweek stats into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	teams, err := validSeedTeams(memory.SeedTeams())
	if err != nil {
		return err
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM fantasy_teams WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count fantasy teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range teams {
		chips, err := encodeChips(t.Chips)
		if err != nil {
			return fmt.Errorf("encode seed chips %s: %w", t.ID, err)
		}

		sqlQuery, args, err := sqlx.Named(`
INSERT INTO fantasy_teams (
    public_id, owner_id, owner_country, league_public_id, season, name, formation,
    budget, remaining_budget, free_transfers, chips, created_at, updated_at
)
VALUES (
    :public_id, :owner_id, :owner_country, :league_public_id, :season, :name, :formation,
    :budget, :remaining_budget, :free_transfers, :chips, :created_at, :updated_at
)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":        t.ID,
			"owner_id":         t.OwnerID,
			"owner_country":    t.OwnerCountry,
			"league_public_id": t.LeagueID,
			"season":           t.Season,
			"name":             t.Name,
			"formation":        t.Formation,
			"budget":           t.Budget,
			"remaining_budget": t.RemainingBudget,
			"free_transfers":   t.FreeTransfers,
			"chips":            chips,
			"created_at":       t.CreatedAt,
			"updated_at":       t.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed team %s: %w", t.ID, err)
		}

		starters := make(map[string]struct{}, len(t.StartingEleven))
		for _, entry := range t.StartingEleven {
			starters[entry.PlayerID] = struct{}{}
		}
		for slot, entry := range t.Squad {
			_, isStarter := starters[entry.PlayerID]
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO fantasy_team_roster (
    team_public_id, player_public_id, position, slot, is_starter, is_captain, is_vice_captain,
    purchase_price, current_value
)
VALUES (
    :team_public_id, :player_public_id, :position, :slot, :is_starter, :is_captain, :is_vice_captain,
    :purchase_price, :current_value
)`, rosterTableModel{
				TeamID:        t.ID,
				PlayerID:      entry.PlayerID,
				Position:      string(entry.Position),
				Slot:          slot + 1,
				IsStarter:     isStarter,
				IsCaptain:     entry.IsCaptain,
				IsViceCaptain: entry.IsViceCaptain,
				PurchasePrice: entry.PurchasePrice,
				CurrentValue:  entry.CurrentValue,
			})
			if err != nil {
				return fmt.Errorf("bind seed roster %s/%s query: %w", t.ID, entry.PlayerID, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
				return fmt.Errorf("seed roster %s/%s: %w", t.ID, entry.PlayerID, err)
			}
		}
	}

	for _, s := range memory.SeedPlayerStats() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO player_gameweek_stats (
    player_public_id, gameweek, fixture_public_id, minutes_played, goals, assists, clean_sheet,
    saves, penalty_saved, penalty_missed, own_goal, yellow_card, red_card, goals_conceded
)
VALUES (
    :player_public_id, :gameweek, :fixture_public_id, :minutes_played, :goals, :assists, :clean_sheet,
    :saves, :penalty_saved, :penalty_missed, :own_goal, :yellow_card, :red_card, :goals_conceded
)
ON CONFLICT (player_public_id, gameweek) WHERE deleted_at IS NULL DO NOTHING`, playerGameweekStatsRow{
			PlayerID:      s.PlayerID,
			Gameweek:      s.Gameweek,
			FixtureID:     s.FixtureID,
			MinutesPlayed: s.MinutesPlayed,
			Goals:         s.Goals,
			Assists:       s.Assists,
			CleanSheet:    s.CleanSheet,
			Saves:         s.Saves,
			PenaltySaved:  s.PenaltySaved,
			PenaltyMissed: s.PenaltyMissed,
			OwnGoal:       s.OwnGoal,
			YellowCard:    s.YellowCard,
			RedCard:       s.RedCard,
			GoalsConceded: s.GoalsConceded,
		})
		if err != nil {
			return fmt.Errorf("bind seed stats %s query: %w", s.PlayerID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed stats %s gameweek=%d: %w", s.PlayerID, s.Gameweek, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func validSeedTeams(teams []fantasy.Team) ([]fantasy.Team, error) {
	for _, t := range teams {
		if err := fantasy.ValidateRoster(t); err != nil {
			return nil, fmt.Errorf("invalid seed: %w", err)
		}
	}
	return teams, nil
}
