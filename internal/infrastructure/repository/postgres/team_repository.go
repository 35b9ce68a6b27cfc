package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	qb "github.com/riskibarqy/fantasy-scoring/internal/platform/querybuilder"
)

type TeamRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db, now: time.Now}
}

func (r *TeamRepository) ListAll(ctx context.Context) ([]fantasy.Team, error) {
	query, args, err := qb.Select(teamColumns).
		From("fantasy_teams").
		Where(qb.IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy teams query: %w", err)
	}
	return r.loadTeams(ctx, query, args)
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]fantasy.Team, error) {
	query, args, err := qb.Select(teamColumns).
		From("fantasy_teams").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy teams by league query: %w", err)
	}
	return r.loadTeams(ctx, query, args)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (fantasy.Team, bool, error) {
	query, args, err := qb.Select(teamColumns).
		From("fantasy_teams").
		Where(
			qb.Eq("public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fantasy.Team{}, false, fmt.Errorf("build get fantasy team query: %w", err)
	}

	teams, err := r.loadTeams(ctx, query, args)
	if err != nil {
		return fantasy.Team{}, false, err
	}
	if len(teams) == 0 {
		return fantasy.Team{}, false, nil
	}
	return teams[0], true, nil
}

func (r *TeamRepository) loadTeams(ctx context.Context, query string, args []any) ([]fantasy.Team, error) {
	var teamRows []teamTableModel
	if err := r.db.SelectContext(ctx, &teamRows, query, args...); err != nil {
		return nil, fmt.Errorf("list fantasy teams: %w", err)
	}
	if len(teamRows) == 0 {
		return nil, nil
	}

	teamIDs := make([]string, 0, len(teamRows))
	for _, row := range teamRows {
		teamIDs = append(teamIDs, row.PublicID)
	}

	rosterQuery, rosterArgs, err := qb.Select(
		"team_public_id",
		"player_public_id",
		"position",
		"slot",
		"is_starter",
		"is_captain",
		"is_vice_captain",
		"purchase_price",
		"current_value",
	).From("fantasy_team_roster").
		Where(qb.Any("team_public_id", pq.Array(teamIDs)), qb.IsNull("deleted_at")).
		OrderBy("team_public_id", "slot").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy team roster query: %w", err)
	}

	var rosterRows []rosterTableModel
	if err := r.db.SelectContext(ctx, &rosterRows, rosterQuery, rosterArgs...); err != nil {
		return nil, fmt.Errorf("list fantasy team roster: %w", err)
	}

	historyQuery, historyArgs, err := qb.Select("team_public_id", "gameweek", "points", "transfers", "penalty", "chip_played", "settled_at").
		From("fantasy_team_gameweek_points").
		Where(qb.Any("team_public_id", pq.Array(teamIDs))).
		OrderBy("team_public_id", "gameweek").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy team gameweek points query: %w", err)
	}

	var historyRows []gameweekPointsTableModel
	if err := r.db.SelectContext(ctx, &historyRows, historyQuery, historyArgs...); err != nil {
		return nil, fmt.Errorf("list fantasy team gameweek points: %w", err)
	}

	teams, err := assembleTeams(teamRows, rosterRows, historyRows)
	if err != nil {
		return nil, fmt.Errorf("decode fantasy teams: %w", err)
	}
	return teams, nil
}

// SaveSettlement writes the gameweek row, the new totals and the chip usage in one
// transaction. The total is read under the row lock and incremented there. The unique
// (team, gameweek) key turns a second settlement into ErrDuplicateSettlement.
func (r *TeamRepository) SaveSettlement(ctx context.Context, settlement fantasy.Settlement) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx save settlement: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked struct {
		Chips       string `db:"chips"`
		TotalPoints int    `db:"total_points"`
	}
	if err := tx.GetContext(ctx, &locked, `
SELECT chips, total_points
FROM fantasy_teams
WHERE public_id = $1
  AND deleted_at IS NULL
FOR UPDATE`, settlement.TeamID); err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("%w: %s", fantasy.ErrTeamNotFound, settlement.TeamID)
		}
		return 0, fmt.Errorf("lock fantasy team %s: %w", settlement.TeamID, err)
	}

	record := gameweekPointsTableModel{
		TeamID:     settlement.TeamID,
		Gameweek:   settlement.Record.Gameweek,
		Points:     settlement.Record.Points,
		Transfers:  settlement.Record.Transfers,
		Penalty:    settlement.Record.Penalty,
		ChipPlayed: string(settlement.Record.ChipPlayed),
		SettledAt:  settlement.Record.SettledAt,
	}
	query, args, err := qb.InsertModel("fantasy_team_gameweek_points", record, "ON CONFLICT (team_public_id, gameweek) DO NOTHING")
	if err != nil {
		return 0, fmt.Errorf("build insert gameweek points query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert gameweek points team=%s gameweek=%d: %w", settlement.TeamID, settlement.Record.Gameweek, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read inserted gameweek points: %w", err)
	}
	if inserted == 0 {
		return 0, fmt.Errorf("%w: team=%s gameweek=%d", fantasy.ErrDuplicateSettlement, settlement.TeamID, settlement.Record.Gameweek)
	}

	totalPoints := locked.TotalPoints + settlement.Record.Points
	update := qb.Update("fantasy_teams").
		Set("total_points", totalPoints).
		Set("free_transfers", settlement.FreeTransfers).
		Set("transfers_made", settlement.TransfersMade).
		Set("active_chip", string(fantasy.ChipNone)).
		Set("updated_at", r.now().UTC())

	if settlement.ChipUsed != nil {
		chips, err := decodeChips(locked.Chips)
		if err != nil {
			return 0, fmt.Errorf("decode chips team=%s: %w", settlement.TeamID, err)
		}
		chips, ok := markChipUsed(chips, *settlement.ChipUsed)
		if !ok {
			return 0, fmt.Errorf("%w: %s", fantasy.ErrChipUnavailable, settlement.ChipUsed.Type)
		}
		encoded, err := encodeChips(chips)
		if err != nil {
			return 0, fmt.Errorf("encode chips team=%s: %w", settlement.TeamID, err)
		}
		update = update.Set("chips", encoded)
	}

	query, args, err = update.Where(qb.Eq("public_id", settlement.TeamID)).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build update fantasy team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("update fantasy team %s: %w", settlement.TeamID, err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: team=%s gameweek=%d", fantasy.ErrDuplicateSettlement, settlement.TeamID, settlement.Record.Gameweek)
		}
		return 0, fmt.Errorf("commit save settlement tx: %w", err)
	}
	return totalPoints, nil
}

// UpdateRanks writes every assignment in a single statement.
func (r *TeamRepository) UpdateRanks(ctx context.Context, ranks []fantasy.RankAssignment) error {
	if len(ranks) == 0 {
		return nil
	}

	teamIDs := make([]string, 0, len(ranks))
	globalRanks := make([]int64, 0, len(ranks))
	countryRanks := make([]int64, 0, len(ranks))
	for _, rank := range ranks {
		teamIDs = append(teamIDs, rank.TeamID)
		globalRanks = append(globalRanks, int64(rank.GlobalRank))
		countryRanks = append(countryRanks, int64(rank.CountryRank))
	}

	const query = `
UPDATE fantasy_teams AS t
SET global_rank = v.global_rank,
    country_rank = v.country_rank
FROM (
    SELECT UNNEST($1::text[]) AS public_id,
           UNNEST($2::int[]) AS global_rank,
           UNNEST($3::int[]) AS country_rank
) AS v
WHERE t.public_id = v.public_id
  AND t.deleted_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(teamIDs), pq.Array(globalRanks), pq.Array(countryRanks)); err != nil {
		return fmt.Errorf("update fantasy team ranks: %w", err)
	}
	return nil
}
