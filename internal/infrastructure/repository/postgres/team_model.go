package postgres

import (
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
)

const teamColumns = `public_id, owner_id, owner_country, league_public_id, season, name, formation, budget,
remaining_budget, total_points, free_transfers, transfers_made, chips, active_chip,
global_rank, country_rank, created_at, updated_at`

type teamTableModel struct {
	PublicID        string    `db:"public_id"`
	OwnerID         string    `db:"owner_id"`
	OwnerCountry    string    `db:"owner_country"`
	LeagueID        string    `db:"league_public_id"`
	Season          int       `db:"season"`
	Name            string    `db:"name"`
	Formation       string    `db:"formation"`
	Budget          int64     `db:"budget"`
	RemainingBudget int64     `db:"remaining_budget"`
	TotalPoints     int       `db:"total_points"`
	FreeTransfers   int       `db:"free_transfers"`
	TransfersMade   int       `db:"transfers_made"`
	Chips           string    `db:"chips"`
	ActiveChip      string    `db:"active_chip"`
	GlobalRank      int       `db:"global_rank"`
	CountryRank     int       `db:"country_rank"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type rosterTableModel struct {
	TeamID        string `db:"team_public_id"`
	PlayerID      string `db:"player_public_id"`
	Position      string `db:"position"`
	Slot          int    `db:"slot"`
	IsStarter     bool   `db:"is_starter"`
	IsCaptain     bool   `db:"is_captain"`
	IsViceCaptain bool   `db:"is_vice_captain"`
	PurchasePrice int64  `db:"purchase_price"`
	CurrentValue  int64  `db:"current_value"`
}

type gameweekPointsTableModel struct {
	TeamID     string    `db:"team_public_id"`
	Gameweek   int       `db:"gameweek"`
	Points     int       `db:"points"`
	Transfers  int       `db:"transfers"`
	Penalty    int       `db:"penalty"`
	ChipPlayed string    `db:"chip_played"`
	SettledAt  time.Time `db:"settled_at"`
}

type chipJSON struct {
	Type         string `json:"type"`
	Used         bool   `json:"used"`
	GameweekUsed int    `json:"gameweek_used,omitempty"`
}

func encodeChips(chips []fantasy.Chip) (string, error) {
	items := make([]chipJSON, 0, len(chips))
	for _, chip := range chips {
		items = append(items, chipJSON{
			Type:         string(chip.Type),
			Used:         chip.Used,
			GameweekUsed: chip.GameweekUsed,
		})
	}
	encoded, err := sonic.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeChips(raw string) ([]fantasy.Chip, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var items []chipJSON
	if err := sonic.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]fantasy.Chip, 0, len(items))
	for _, item := range items {
		out = append(out, fantasy.Chip{
			Type:         fantasy.ChipType(item.Type),
			Used:         item.Used,
			GameweekUsed: item.GameweekUsed,
		})
	}
	return out, nil
}

// assembleTeams joins team rows with their roster and history rows. Team order is kept;
// roster rows are expected in slot order and history rows in gameweek order.
func assembleTeams(teams []teamTableModel, roster []rosterTableModel, history []gameweekPointsTableModel) ([]fantasy.Team, error) {
	rosterByTeam := make(map[string][]rosterTableModel, len(teams))
	for _, row := range roster {
		rosterByTeam[row.TeamID] = append(rosterByTeam[row.TeamID], row)
	}
	historyByTeam := make(map[string][]gameweekPointsTableModel, len(teams))
	for _, row := range history {
		historyByTeam[row.TeamID] = append(historyByTeam[row.TeamID], row)
	}

	out := make([]fantasy.Team, 0, len(teams))
	for _, row := range teams {
		chips, err := decodeChips(row.Chips)
		if err != nil {
			return nil, err
		}

		team := fantasy.Team{
			ID:              row.PublicID,
			OwnerID:         row.OwnerID,
			OwnerCountry:    row.OwnerCountry,
			LeagueID:        row.LeagueID,
			Season:          row.Season,
			Name:            row.Name,
			Formation:       row.Formation,
			Budget:          row.Budget,
			RemainingBudget: row.RemainingBudget,
			TotalPoints:     row.TotalPoints,
			FreeTransfers:   row.FreeTransfers,
			TransfersMade:   row.TransfersMade,
			Chips:           chips,
			ActiveChip:      fantasy.ChipType(row.ActiveChip),
			GlobalRank:      row.GlobalRank,
			CountryRank:     row.CountryRank,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		}

		for _, r := range rosterByTeam[row.PublicID] {
			entry := fantasy.RosterEntry{
				PlayerID:      r.PlayerID,
				Position:      player.Position(r.Position),
				IsCaptain:     r.IsCaptain,
				IsViceCaptain: r.IsViceCaptain,
				PurchasePrice: r.PurchasePrice,
				CurrentValue:  r.CurrentValue,
			}
			team.Squad = append(team.Squad, entry)
			if r.IsStarter {
				team.StartingEleven = append(team.StartingEleven, entry)
			}
		}

		for _, h := range historyByTeam[row.PublicID] {
			team.History = append(team.History, fantasy.GameweekRecord{
				Gameweek:   h.Gameweek,
				Points:     h.Points,
				Transfers:  h.Transfers,
				Penalty:    h.Penalty,
				ChipPlayed: fantasy.ChipType(h.ChipPlayed),
				SettledAt:  h.SettledAt,
			})
		}

		out = append(out, team)
	}
	return out, nil
}

// markChipUsed flips the first unused chip of the given type. It reports false when none is left.
func markChipUsed(chips []fantasy.Chip, usage fantasy.ChipUsage) ([]fantasy.Chip, bool) {
	out := append([]fantasy.Chip(nil), chips...)
	for idx := range out {
		if out[idx].Type == usage.Type && !out[idx].Used {
			out[idx].Used = true
			out[idx].GameweekUsed = usage.Gameweek
			return out, true
		}
	}
	return out, false
}
