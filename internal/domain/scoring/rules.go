package scoring

import (
	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
)

const (
	FullAppearanceMinutes = 60

	pointsFullAppearance    = 2
	pointsPartialAppearance = 1
	pointsPerAssist         = 3
	savesPerPoint           = 3
	pointsPenaltySaved      = 5
	pointsPenaltyMissed     = -2
	pointsYellowCard        = -1
	pointsRedCard           = -3
	pointsOwnGoal           = -2
	concededPerDeduction    = 2
)

var goalPointsByPosition = map[player.Position]int{
	player.PositionGoalkeeper: 6,
	player.PositionDefender:   6,
	player.PositionMidfielder: 5,
	player.PositionForward:    4,
}

var cleanSheetPointsByPosition = map[player.Position]int{
	player.PositionGoalkeeper: 4,
	player.PositionDefender:   4,
	player.PositionMidfielder: 1,
	player.PositionForward:    0,
}

// PlayerPoints maps one player's gameweek statistics to fantasy points.
// The raw total is floored at zero.
func PlayerPoints(stats playerstats.MatchStats, position player.Position) (int, error) {
	breakdown, err := PlayerPointsBreakdown(stats, position)
	if err != nil {
		return 0, err
	}
	return breakdown.Total, nil
}

// PlayerPointsBreakdown applies the scoring rules additively in a fixed order and
// reports each component alongside the floored total.
func PlayerPointsBreakdown(stats playerstats.MatchStats, position player.Position) (Breakdown, error) {
	if err := position.Validate(); err != nil {
		return Breakdown{}, err
	}

	var b Breakdown
	switch {
	case stats.MinutesPlayed >= FullAppearanceMinutes:
		b.Appearance = pointsFullAppearance
	case stats.MinutesPlayed > 0:
		b.Appearance = pointsPartialAppearance
	}

	b.Goals = stats.Goals * goalPointsByPosition[position]
	b.Assists = stats.Assists * pointsPerAssist

	if stats.CleanSheet {
		b.CleanSheet = cleanSheetPointsByPosition[position]
	}
	if position == player.PositionGoalkeeper && stats.Saves > 0 {
		b.Saves = stats.Saves / savesPerPoint
	}

	if stats.PenaltySaved {
		b.Penalties += pointsPenaltySaved
	}
	if stats.PenaltyMissed {
		b.Penalties += pointsPenaltyMissed
	}

	// Yellow and red are applied independently when both flags are set.
	if stats.YellowCard {
		b.Cards += pointsYellowCard
	}
	if stats.RedCard {
		b.Cards += pointsRedCard
	}
	if stats.OwnGoal {
		b.OwnGoal = pointsOwnGoal
	}
	if position.ConcedesGoals() && stats.GoalsConceded > 0 {
		b.GoalsConceded = -(stats.GoalsConceded / concededPerDeduction)
	}

	b.Raw = b.Appearance + b.Goals + b.Assists + b.CleanSheet + b.Saves +
		b.Penalties + b.Cards + b.OwnGoal + b.GoalsConceded
	b.Total = max(0, b.Raw)
	return b, nil
}
