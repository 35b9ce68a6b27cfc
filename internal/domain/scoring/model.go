package scoring

import "github.com/riskibarqy/fantasy-scoring/internal/domain/player"

// Breakdown lists the contribution of each scoring rule for one player.
type Breakdown struct {
	Appearance    int `json:"appearance"`
	Goals         int `json:"goals"`
	Assists       int `json:"assists"`
	CleanSheet    int `json:"clean_sheet"`
	Saves         int `json:"saves"`
	Penalties     int `json:"penalties"`
	Cards         int `json:"cards"`
	OwnGoal       int `json:"own_goal"`
	GoalsConceded int `json:"goals_conceded"`
	Raw           int `json:"raw"`
	Total         int `json:"total"`
}

type PlayerScore struct {
	PlayerID      string
	Position      player.Position
	IsStarter     bool
	IsCaptain     bool
	IsViceCaptain bool
	Played        bool
	Multiplier    int
	Base          int
	Counted       int
	Breakdown     Breakdown
}

// Evaluation is a team's squad score for one gameweek before transfer penalties.
type Evaluation struct {
	Total   int
	Players []PlayerScore
}
