package fantasy

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
)

func validTeam() Team {
	squad := []RosterEntry{
		{PlayerID: "gk1", Position: player.PositionGoalkeeper},
		{PlayerID: "gk2", Position: player.PositionGoalkeeper},
		{PlayerID: "d1", Position: player.PositionDefender},
		{PlayerID: "d2", Position: player.PositionDefender},
		{PlayerID: "d3", Position: player.PositionDefender},
		{PlayerID: "d4", Position: player.PositionDefender},
		{PlayerID: "d5", Position: player.PositionDefender},
		{PlayerID: "m1", Position: player.PositionMidfielder},
		{PlayerID: "m2", Position: player.PositionMidfielder},
		{PlayerID: "m3", Position: player.PositionMidfielder},
		{PlayerID: "m4", Position: player.PositionMidfielder},
		{PlayerID: "m5", Position: player.PositionMidfielder},
		{PlayerID: "f1", Position: player.PositionForward},
		{PlayerID: "f2", Position: player.PositionForward},
		{PlayerID: "f3", Position: player.PositionForward},
	}
	starters := []RosterEntry{
		squad[0],
		squad[2], squad[3], squad[4], squad[5],
		squad[7], squad[8], squad[9],
		squad[12], squad[13], squad[14],
	}
	starters[5].IsCaptain = true
	starters[8].IsViceCaptain = true

	return Team{
		ID:              "team-1",
		Squad:           squad,
		StartingEleven:  starters,
		Formation:       "4-3-3",
		Budget:          1000,
		RemainingBudget: 15,
	}
}

func TestValidateSquad(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Team)
		targetErr error
	}{
		{
			name:      "valid squad",
			mutate:    func(*Team) {},
			targetErr: nil,
		},
		{
			name: "invalid size",
			mutate: func(team *Team) {
				team.Squad = team.Squad[:14]
			},
			targetErr: ErrInvalidSquadSize,
		},
		{
			name: "negative budget",
			mutate: func(team *Team) {
				team.RemainingBudget = -1
			},
			targetErr: ErrNegativeBudget,
		},
		{
			name: "position quota",
			mutate: func(team *Team) {
				team.Squad[14].Position = player.PositionMidfielder
			},
			targetErr: ErrInsufficientFormation,
		},
		{
			name: "duplicate player",
			mutate: func(team *Team) {
				team.Squad[1].PlayerID = "gk1"
			},
			targetErr: ErrDuplicatePlayerInSquad,
		},
		{
			name: "unknown position",
			mutate: func(team *Team) {
				team.Squad[0].Position = player.Position("UNK")
			},
			targetErr: player.ErrInvalidPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := validTeam().Clone()
			tt.mutate(&team)

			err := ValidateSquad(team, DefaultSquadRules())
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected error %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestValidateStartingEleven(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Team)
		targetErr error
	}{
		{
			name:   "valid eleven",
			mutate: func(*Team) {},
		},
		{
			name: "ten starters",
			mutate: func(team *Team) {
				team.StartingEleven = team.StartingEleven[:10]
			},
			targetErr: ErrInvalidStartingEleven,
		},
		{
			name: "starter outside squad",
			mutate: func(team *Team) {
				team.StartingEleven[1].PlayerID = "stranger"
			},
			targetErr: ErrInvalidStartingEleven,
		},
		{
			name: "two goalkeepers",
			mutate: func(team *Team) {
				team.StartingEleven[1] = team.Squad[1]
				team.Formation = ""
			},
			targetErr: ErrInvalidStartingEleven,
		},
		{
			name: "formation mismatch",
			mutate: func(team *Team) {
				team.Formation = "4-4-2"
			},
			targetErr: ErrInvalidStartingEleven,
		},
		{
			name: "two captains",
			mutate: func(team *Team) {
				team.StartingEleven[2].IsCaptain = true
			},
			targetErr: ErrInvalidCaptaincy,
		},
		{
			name: "captain is vice",
			mutate: func(team *Team) {
				team.StartingEleven[8].IsViceCaptain = false
				team.StartingEleven[5].IsViceCaptain = true
			},
			targetErr: ErrInvalidCaptaincy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := validTeam().Clone()
			tt.mutate(&team)

			err := ValidateStartingEleven(team, DefaultSquadRules())
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected error %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestParseFormation(t *testing.T) {
	def, mid, fwd, err := ParseFormation("3-5-2")
	if err != nil {
		t.Fatalf("parse formation: %v", err)
	}
	if def != 3 || mid != 5 || fwd != 2 {
		t.Fatalf("unexpected formation: %d-%d-%d", def, mid, fwd)
	}

	for _, raw := range []string{"4-4", "4-4-3", "a-b-c", "5-5-0"} {
		if _, _, _, err := ParseFormation(raw); !errors.Is(err, ErrInvalidStartingEleven) {
			t.Fatalf("expected ErrInvalidStartingEleven for %q, got %v", raw, err)
		}
	}
}

func TestTeam_BenchAndChips(t *testing.T) {
	team := validTeam()
	team.Chips = []Chip{
		{Type: ChipWildcard, Used: true, GameweekUsed: 3},
		{Type: ChipBenchBoost},
	}

	bench := team.Bench()
	if len(bench) != 4 {
		t.Fatalf("unexpected bench size: got=%d want=4", len(bench))
	}
	if bench[0].PlayerID != "gk2" {
		t.Fatalf("expected bench to keep squad order, got first=%s", bench[0].PlayerID)
	}

	if _, ok := team.AvailableChip(ChipWildcard); ok {
		t.Fatalf("used wildcard must not be available")
	}
	if idx, ok := team.AvailableChip(ChipBenchBoost); !ok || idx != 1 {
		t.Fatalf("expected bench boost at index 1, got idx=%d ok=%v", idx, ok)
	}
}

func TestTeam_HasRecordAndHistoryTotal(t *testing.T) {
	team := Team{History: []GameweekRecord{
		{Gameweek: 1, Points: 40},
		{Gameweek: 2, Points: -4},
	}}

	if !team.HasRecord(2) || team.HasRecord(3) {
		t.Fatalf("unexpected HasRecord results")
	}
	if got := team.HistoryTotal(); got != 36 {
		t.Fatalf("unexpected history total: got=%d want=36", got)
	}
}
