package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get team: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to match")
	}
	if isNotFound(fakeErr("pq: relation fantasy_teams does not exist")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("commit: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "40001"}) {
			t.Fatalf("expected false for serialization failure")
		}
		if isUniqueViolation(fakeErr("boom")) {
			t.Fatalf("expected false for plain error")
		}
	})
}

func TestChipsRoundTrip(t *testing.T) {
	chips := []fantasy.Chip{
		{Type: fantasy.ChipWildcard, Used: true, GameweekUsed: 4},
		{Type: fantasy.ChipBenchBoost},
	}

	raw, err := encodeChips(chips)
	if err != nil {
		t.Fatalf("encode chips: %v", err)
	}
	got, err := decodeChips(raw)
	if err != nil {
		t.Fatalf("decode chips: %v", err)
	}
	if len(got) != 2 || got[0] != chips[0] || got[1] != chips[1] {
		t.Fatalf("unexpected chips: %+v", got)
	}

	for _, raw := range []string{"", "null", "  "} {
		empty, err := decodeChips(raw)
		if err != nil || len(empty) != 0 {
			t.Fatalf("expected no chips for %q, got %+v err=%v", raw, empty, err)
		}
	}
	if _, err := decodeChips("{broken"); err == nil {
		t.Fatalf("expected error for malformed chips")
	}
}

func TestMarkChipUsed(t *testing.T) {
	chips := []fantasy.Chip{
		{Type: fantasy.ChipFreeHit, Used: true, GameweekUsed: 2},
		{Type: fantasy.ChipFreeHit},
	}

	got, ok := markChipUsed(chips, fantasy.ChipUsage{Type: fantasy.ChipFreeHit, Gameweek: 9})
	if !ok {
		t.Fatalf("expected second free hit to be available")
	}
	if !got[1].Used || got[1].GameweekUsed != 9 {
		t.Fatalf("unexpected chip state: %+v", got[1])
	}
	if chips[1].Used {
		t.Fatalf("input chips must not be mutated")
	}

	if _, ok := markChipUsed(got, fantasy.ChipUsage{Type: fantasy.ChipFreeHit, Gameweek: 10}); ok {
		t.Fatalf("expected no free hit left")
	}
}

func TestAssembleTeams(t *testing.T) {
	settledAt := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	teams := []teamTableModel{
		{PublicID: "t1", Name: "One", TotalPoints: 40, Chips: `[{"type":"wildcard","used":false}]`, ActiveChip: "wildcard"},
		{PublicID: "t2", Name: "Two", Chips: "[]"},
	}
	roster := []rosterTableModel{
		{TeamID: "t1", PlayerID: "gk", Position: "GK", Slot: 1, IsStarter: true},
		{TeamID: "t1", PlayerID: "gk2", Position: "GK", Slot: 2},
		{TeamID: "t1", PlayerID: "fwd", Position: "FWD", Slot: 3, IsStarter: true, IsCaptain: true},
	}
	history := []gameweekPointsTableModel{
		{TeamID: "t1", Gameweek: 1, Points: 44, Transfers: 2, Penalty: -4, SettledAt: settledAt},
	}

	got, err := assembleTeams(teams, roster, history)
	if err != nil {
		t.Fatalf("assemble teams: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected team count: %d", len(got))
	}

	one := got[0]
	if len(one.Squad) != 3 || len(one.StartingEleven) != 2 {
		t.Fatalf("unexpected roster split: squad=%d starters=%d", len(one.Squad), len(one.StartingEleven))
	}
	if !one.StartingEleven[1].IsCaptain || one.StartingEleven[1].Position != player.PositionForward {
		t.Fatalf("unexpected captain entry: %+v", one.StartingEleven[1])
	}
	if one.ActiveChip != fantasy.ChipWildcard || len(one.Chips) != 1 {
		t.Fatalf("unexpected chips: active=%s chips=%+v", one.ActiveChip, one.Chips)
	}
	if len(one.History) != 1 || one.History[0].Penalty != -4 || !one.History[0].SettledAt.Equal(settledAt) {
		t.Fatalf("unexpected history: %+v", one.History)
	}
	if len(got[1].Squad) != 0 || len(got[1].History) != 0 {
		t.Fatalf("team without rows must stay empty: %+v", got[1])
	}

	if _, err := assembleTeams([]teamTableModel{{PublicID: "bad", Chips: "{"}}, nil, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
