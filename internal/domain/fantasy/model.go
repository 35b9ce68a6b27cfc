package fantasy

import (
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
)

// ChipType is a one-time modifier a manager can play for a single gameweek.
type ChipType string

const (
	ChipNone          ChipType = ""
	ChipWildcard      ChipType = "wildcard"
	ChipBenchBoost    ChipType = "bench_boost"
	ChipTripleCaptain ChipType = "triple_captain"
	ChipFreeHit       ChipType = "free_hit"
)

var AllChips = map[ChipType]struct{}{
	ChipWildcard:      {},
	ChipBenchBoost:    {},
	ChipTripleCaptain: {},
	ChipFreeHit:       {},
}

// WaivesTransferPenalty reports whether playing the chip makes every transfer free.
func (c ChipType) WaivesTransferPenalty() bool {
	return c == ChipWildcard || c == ChipFreeHit
}

type Chip struct {
	Type         ChipType
	Used         bool
	GameweekUsed int
}

// RosterEntry is one owned player in a fantasy squad.
type RosterEntry struct {
	PlayerID      string
	Position      player.Position
	IsCaptain     bool
	IsViceCaptain bool
	PurchasePrice int64
	CurrentValue  int64
}

// GameweekRecord is the audit entry written once per team per settled gameweek.
type GameweekRecord struct {
	Gameweek   int       `json:"gameweek"`
	Points     int       `json:"points"`
	Transfers  int       `json:"transfers"`
	Penalty    int       `json:"penalty"`
	ChipPlayed ChipType  `json:"chip_played,omitempty"`
	SettledAt  time.Time `json:"settled_at"`
}

// Team is a user's fantasy team for one league and season.
type Team struct {
	ID              string
	OwnerID         string
	OwnerCountry    string
	LeagueID        string
	Season          int
	Name            string
	Squad           []RosterEntry
	StartingEleven  []RosterEntry
	Formation       string
	Budget          int64
	RemainingBudget int64
	TotalPoints     int
	History         []GameweekRecord
	FreeTransfers   int
	TransfersMade   int
	Chips           []Chip
	ActiveChip      ChipType
	GlobalRank      int
	CountryRank     int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t Team) HasRecord(gameweek int) bool {
	for _, record := range t.History {
		if record.Gameweek == gameweek {
			return true
		}
	}
	return false
}

func (t Team) HistoryTotal() int {
	total := 0
	for _, record := range t.History {
		total += record.Points
	}
	return total
}

// Bench returns squad entries that are not in the starting eleven, in squad order.
func (t Team) Bench() []RosterEntry {
	starters := make(map[string]struct{}, len(t.StartingEleven))
	for _, entry := range t.StartingEleven {
		starters[entry.PlayerID] = struct{}{}
	}

	out := make([]RosterEntry, 0, len(t.Squad))
	for _, entry := range t.Squad {
		if _, ok := starters[entry.PlayerID]; ok {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// AvailableChip returns the index of an unused chip of the given type.
func (t Team) AvailableChip(chipType ChipType) (int, bool) {
	for idx, chip := range t.Chips {
		if chip.Type == chipType && !chip.Used {
			return idx, true
		}
	}
	return -1, false
}

// Clone returns a deep copy so repositories and workers never share slices.
func (t Team) Clone() Team {
	copied := t
	copied.Squad = append([]RosterEntry(nil), t.Squad...)
	copied.StartingEleven = append([]RosterEntry(nil), t.StartingEleven...)
	copied.History = append([]GameweekRecord(nil), t.History...)
	copied.Chips = append([]Chip(nil), t.Chips...)
	return copied
}

// ChipUsage marks a chip consumed by a settlement.
type ChipUsage struct {
	Type     ChipType
	Gameweek int
}

// Settlement is the full state change applied to one team for one gameweek.
// Repositories must apply it atomically. Record.Points is added to the stored total,
// never copied over it.
type Settlement struct {
	TeamID        string
	Record        GameweekRecord
	FreeTransfers int
	TransfersMade int
	ChipUsed      *ChipUsage
}

type RankAssignment struct {
	TeamID      string `json:"team_id"`
	GlobalRank  int    `json:"global_rank"`
	CountryRank int    `json:"country_rank"`
}
