package memory

import (
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
)

const (
	LeagueIDLiga1Indonesia = "idn-liga-1-2025"
	SeedSeason             = 2025
)

type seedPlayer struct {
	id       string
	position player.Position
	price    int64
}

var seedPlayers = []seedPlayer{
	{id: "idn-gk-01", position: player.PositionGoalkeeper, price: 90},
	{id: "idn-gk-02", position: player.PositionGoalkeeper, price: 85},
	{id: "idn-def-01", position: player.PositionDefender, price: 88},
	{id: "idn-def-02", position: player.PositionDefender, price: 92},
	{id: "idn-def-03", position: player.PositionDefender, price: 84},
	{id: "idn-def-04", position: player.PositionDefender, price: 80},
	{id: "idn-def-05", position: player.PositionDefender, price: 72},
	{id: "idn-mid-01", position: player.PositionMidfielder, price: 98},
	{id: "idn-mid-02", position: player.PositionMidfielder, price: 99},
	{id: "idn-mid-03", position: player.PositionMidfielder, price: 95},
	{id: "idn-mid-04", position: player.PositionMidfielder, price: 97},
	{id: "idn-mid-05", position: player.PositionMidfielder, price: 90},
	{id: "idn-fwd-01", position: player.PositionForward, price: 105},
	{id: "idn-fwd-02", position: player.PositionForward, price: 108},
	{id: "idn-fwd-03", position: player.PositionForward, price: 100},
}

// SeedTeams returns three 4-3-3 teams over the same player pool, captained differently.
func SeedTeams() []fantasy.Team {
	createdAt := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	return []fantasy.Team{
		seedTeam("ft-garuda", "user-01", "ID", "Garuda XI", "idn-mid-01", "idn-fwd-01", createdAt),
		seedTeam("ft-macan", "user-02", "ID", "Macan Kemayoran", "idn-fwd-02", "idn-mid-02", createdAt.Add(time.Hour)),
		seedTeam("ft-singa", "user-03", "SG", "Singa Utara", "idn-def-01", "idn-gk-01", createdAt.Add(2*time.Hour)),
	}
}

func seedTeam(teamID, ownerID, country, name, captainID, viceID string, createdAt time.Time) fantasy.Team {
	squad := make([]fantasy.RosterEntry, 0, len(seedPlayers))
	var spent int64
	for _, p := range seedPlayers {
		squad = append(squad, fantasy.RosterEntry{
			PlayerID:      p.id,
			Position:      p.position,
			IsCaptain:     p.id == captainID,
			IsViceCaptain: p.id == viceID,
			PurchasePrice: p.price,
			CurrentValue:  p.price,
		})
		spent += p.price
	}

	// gk-01, def-01..04, mid-01..03, fwd-01..03
	starterIdx := []int{0, 2, 3, 4, 5, 7, 8, 9, 12, 13, 14}
	starters := make([]fantasy.RosterEntry, 0, len(starterIdx))
	for _, idx := range starterIdx {
		starters = append(starters, squad[idx])
	}

	return fantasy.Team{
		ID:              teamID,
		OwnerID:         ownerID,
		OwnerCountry:    country,
		LeagueID:        LeagueIDLiga1Indonesia,
		Season:          SeedSeason,
		Name:            name,
		Squad:           squad,
		StartingEleven:  starters,
		Formation:       "4-3-3",
		Budget:          1500,
		RemainingBudget: 1500 - spent,
		FreeTransfers:   1,
		Chips: []fantasy.Chip{
			{Type: fantasy.ChipWildcard},
			{Type: fantasy.ChipBenchBoost},
			{Type: fantasy.ChipTripleCaptain},
			{Type: fantasy.ChipFreeHit},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func SeedPlayerStats() []playerstats.MatchStats {
	return []playerstats.MatchStats{
		{PlayerID: "idn-gk-01", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 90, CleanSheet: true, Saves: 5},
		{PlayerID: "idn-def-01", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 90, CleanSheet: true, Goals: 1},
		{PlayerID: "idn-def-02", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 90, GoalsConceded: 2, YellowCard: true},
		{PlayerID: "idn-def-03", Gameweek: 1, FixtureID: "fx-idn-002", MinutesPlayed: 45, GoalsConceded: 3},
		{PlayerID: "idn-def-04", Gameweek: 1, FixtureID: "fx-idn-002", MinutesPlayed: 70},
		{PlayerID: "idn-mid-01", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 90, Goals: 1, Assists: 1},
		{PlayerID: "idn-mid-02", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 85, Assists: 2},
		{PlayerID: "idn-mid-03", Gameweek: 1, FixtureID: "fx-idn-002", MinutesPlayed: 30, OwnGoal: true},
		{PlayerID: "idn-fwd-01", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 90, Goals: 2, Assists: 1},
		{PlayerID: "idn-fwd-02", Gameweek: 1, FixtureID: "fx-idn-001", MinutesPlayed: 0},
		{PlayerID: "idn-fwd-03", Gameweek: 1, FixtureID: "fx-idn-002", MinutesPlayed: 64, PenaltyMissed: true},
		{PlayerID: "idn-gk-02", Gameweek: 1, FixtureID: "fx-idn-002", MinutesPlayed: 90, GoalsConceded: 1, Saves: 3},
	}
}
