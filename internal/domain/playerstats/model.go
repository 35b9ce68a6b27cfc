package playerstats

// MatchStats is one player's recorded performance for a gameweek.
// Absent fields are zero and score nothing.
type MatchStats struct {
	PlayerID      string
	Gameweek      int
	FixtureID     string
	MinutesPlayed int
	Goals         int
	Assists       int
	CleanSheet    bool
	Saves         int
	PenaltySaved  bool
	PenaltyMissed bool
	OwnGoal       bool
	YellowCard    bool
	RedCard       bool
	GoalsConceded int
}

func (s MatchStats) Played() bool {
	return s.MinutesPlayed > 0
}
