package scoring

import (
	"fmt"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
)

const (
	CaptainMultiplier       = 2
	TripleCaptainMultiplier = 3
)

// EvaluateGameweek scores the starting eleven of a team for one gameweek.
//
// Players without stats contribute zero. The captain's floored score is multiplied;
// when the captain did not play the vice-captain takes the multiplier instead.
// A bench boost chip also counts the bench at face value.
func EvaluateGameweek(team fantasy.Team, statsByPlayer map[string]playerstats.MatchStats) (Evaluation, error) {
	if err := fantasy.ValidateCaptaincy(team.StartingEleven); err != nil {
		return Evaluation{}, fmt.Errorf("team %s: %w", team.ID, err)
	}

	multiplier := CaptainMultiplier
	if team.ActiveChip == fantasy.ChipTripleCaptain {
		multiplier = TripleCaptainMultiplier
	}
	armband := armbandHolder(team.StartingEleven, statsByPlayer)

	out := Evaluation{Players: make([]PlayerScore, 0, len(team.Squad))}
	for _, entry := range team.StartingEleven {
		stats, found := statsByPlayer[entry.PlayerID]
		breakdown, err := PlayerPointsBreakdown(stats, entry.Position)
		if err != nil {
			return Evaluation{}, fmt.Errorf("team %s player %s: %w", team.ID, entry.PlayerID, err)
		}

		row := PlayerScore{
			PlayerID:      entry.PlayerID,
			Position:      entry.Position,
			IsStarter:     true,
			IsCaptain:     entry.IsCaptain,
			IsViceCaptain: entry.IsViceCaptain,
			Played:        found && stats.Played(),
			Multiplier:    1,
			Base:          breakdown.Total,
			Breakdown:     breakdown,
		}
		if armband != "" && entry.PlayerID == armband {
			row.Multiplier = multiplier
		}
		row.Counted = row.Base * row.Multiplier

		out.Total += row.Counted
		out.Players = append(out.Players, row)
	}

	benchBoost := team.ActiveChip == fantasy.ChipBenchBoost
	for _, entry := range team.Bench() {
		stats, found := statsByPlayer[entry.PlayerID]
		breakdown, err := PlayerPointsBreakdown(stats, entry.Position)
		if err != nil {
			return Evaluation{}, fmt.Errorf("team %s bench player %s: %w", team.ID, entry.PlayerID, err)
		}

		row := PlayerScore{
			PlayerID:  entry.PlayerID,
			Position:  entry.Position,
			Played:    found && stats.Played(),
			Base:      breakdown.Total,
			Breakdown: breakdown,
		}
		if benchBoost {
			row.Multiplier = 1
			row.Counted = row.Base
			out.Total += row.Counted
		}
		out.Players = append(out.Players, row)
	}

	return out, nil
}

// armbandHolder returns the player whose score is multiplied: the captain, or the
// vice-captain when the captain did not play. Empty means nobody is multiplied, which
// includes a lineup without a captain.
func armbandHolder(starters []fantasy.RosterEntry, statsByPlayer map[string]playerstats.MatchStats) string {
	captainID := ""
	viceID := ""
	for _, entry := range starters {
		if entry.IsCaptain {
			captainID = entry.PlayerID
		}
		if entry.IsViceCaptain {
			viceID = entry.PlayerID
		}
	}

	if captainID == "" {
		return ""
	}
	stats, found := statsByPlayer[captainID]
	if !captainDidNotPlay(stats, found) {
		return captainID
	}
	return viceID
}

// captainDidNotPlay is the single signal for vice-captain substitution: missing stats
// and zero minutes both count as not playing.
func captainDidNotPlay(stats playerstats.MatchStats, found bool) bool {
	return !found || stats.MinutesPlayed == 0
}
