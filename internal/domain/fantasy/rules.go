package fantasy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/player"
)

var (
	ErrInvalidSquadSize       = errors.New("invalid squad size")
	ErrInsufficientFormation  = errors.New("squad position quota not met")
	ErrDuplicatePlayerInSquad = errors.New("duplicate player in squad")
	ErrNegativeBudget         = errors.New("remaining budget is negative")
	ErrInvalidStartingEleven  = errors.New("invalid starting eleven")
	ErrInvalidCaptaincy       = errors.New("invalid captaincy")
	ErrDuplicateSettlement    = errors.New("gameweek already settled")
	ErrChipUnavailable        = errors.New("chip unavailable")
	ErrTeamNotFound           = errors.New("fantasy team not found")
)

const StartingElevenSize = 11

// SquadRules stores squad composition parameters.
type SquadRules struct {
	SquadSize     int
	ByPosition    map[player.Position]int
	MinStarters   map[player.Position]int
	MaxStarters   map[player.Position]int
	StartingSlots int
}

func DefaultSquadRules() SquadRules {
	return SquadRules{
		SquadSize: 15,
		ByPosition: map[player.Position]int{
			player.PositionGoalkeeper: 2,
			player.PositionDefender:   5,
			player.PositionMidfielder: 5,
			player.PositionForward:    3,
		},
		MinStarters: map[player.Position]int{
			player.PositionGoalkeeper: 1,
			player.PositionDefender:   3,
			player.PositionMidfielder: 2,
			player.PositionForward:    1,
		},
		MaxStarters: map[player.Position]int{
			player.PositionGoalkeeper: 1,
			player.PositionDefender:   5,
			player.PositionMidfielder: 5,
			player.PositionForward:    3,
		},
		StartingSlots: StartingElevenSize,
	}
}

// ValidateSquad checks squad composition when teams are loaded. Settlement never calls it.
func ValidateSquad(team Team, rules SquadRules) error {
	if len(team.Squad) != rules.SquadSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidSquadSize, rules.SquadSize, len(team.Squad))
	}
	if team.RemainingBudget < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeBudget, team.RemainingBudget)
	}

	positionCounter := make(map[player.Position]int)
	playerSet := make(map[string]struct{}, len(team.Squad))
	for _, entry := range team.Squad {
		if entry.PlayerID == "" {
			return fmt.Errorf("player id is required")
		}
		if _, exists := playerSet[entry.PlayerID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayerInSquad, entry.PlayerID)
		}
		playerSet[entry.PlayerID] = struct{}{}

		if err := entry.Position.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", entry.PlayerID, err)
		}
		positionCounter[entry.Position]++
	}

	for pos, required := range rules.ByPosition {
		if positionCounter[pos] != required {
			return fmt.Errorf("%w: pos=%s want=%d current=%d", ErrInsufficientFormation, pos, required, positionCounter[pos])
		}
	}

	return nil
}

// ValidateStartingEleven checks that the starting eleven is a legal formation drawn from the squad.
func ValidateStartingEleven(team Team, rules SquadRules) error {
	if len(team.StartingEleven) != rules.StartingSlots {
		return fmt.Errorf("%w: expected %d starters, got %d", ErrInvalidStartingEleven, rules.StartingSlots, len(team.StartingEleven))
	}

	inSquad := make(map[string]struct{}, len(team.Squad))
	for _, entry := range team.Squad {
		inSquad[entry.PlayerID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(team.StartingEleven))
	counter := make(map[player.Position]int)
	for _, entry := range team.StartingEleven {
		if _, ok := inSquad[entry.PlayerID]; !ok {
			return fmt.Errorf("%w: player %s is not in squad", ErrInvalidStartingEleven, entry.PlayerID)
		}
		if _, dup := seen[entry.PlayerID]; dup {
			return fmt.Errorf("%w: duplicate starter %s", ErrInvalidStartingEleven, entry.PlayerID)
		}
		seen[entry.PlayerID] = struct{}{}
		if err := entry.Position.Validate(); err != nil {
			return fmt.Errorf("starter %s: %w", entry.PlayerID, err)
		}
		counter[entry.Position]++
	}

	for pos, min := range rules.MinStarters {
		if counter[pos] < min || counter[pos] > rules.MaxStarters[pos] {
			return fmt.Errorf("%w: pos=%s count=%d allowed=%d..%d", ErrInvalidStartingEleven, pos, counter[pos], min, rules.MaxStarters[pos])
		}
	}

	if strings.TrimSpace(team.Formation) != "" {
		def, mid, fwd, err := ParseFormation(team.Formation)
		if err != nil {
			return err
		}
		if def != counter[player.PositionDefender] || mid != counter[player.PositionMidfielder] || fwd != counter[player.PositionForward] {
			return fmt.Errorf("%w: formation %s does not match starters %d-%d-%d", ErrInvalidStartingEleven, team.Formation,
				counter[player.PositionDefender], counter[player.PositionMidfielder], counter[player.PositionForward])
		}
	}

	return ValidateCaptaincy(team.StartingEleven)
}

// ValidateRoster runs the squad and starting eleven checks with the default rules.
func ValidateRoster(team Team) error {
	rules := DefaultSquadRules()
	if err := ValidateSquad(team, rules); err != nil {
		return fmt.Errorf("team %s: %w", team.ID, err)
	}
	if err := ValidateStartingEleven(team, rules); err != nil {
		return fmt.Errorf("team %s: %w", team.ID, err)
	}
	return nil
}

// ValidateCaptaincy allows at most one captain and one vice-captain, held by different players.
func ValidateCaptaincy(entries []RosterEntry) error {
	captains := 0
	vices := 0
	for _, entry := range entries {
		if entry.IsCaptain && entry.IsViceCaptain {
			return fmt.Errorf("%w: player %s is both captain and vice-captain", ErrInvalidCaptaincy, entry.PlayerID)
		}
		if entry.IsCaptain {
			captains++
		}
		if entry.IsViceCaptain {
			vices++
		}
	}
	if captains > 1 {
		return fmt.Errorf("%w: %d captains", ErrInvalidCaptaincy, captains)
	}
	if vices > 1 {
		return fmt.Errorf("%w: %d vice-captains", ErrInvalidCaptaincy, vices)
	}
	return nil
}

// ParseFormation reads a "DEF-MID-FWD" formation string such as "4-4-2".
func ParseFormation(raw string) (int, int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: malformed formation %q", ErrInvalidStartingEleven, raw)
	}

	counts := make([]int, 0, 3)
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value <= 0 {
			return 0, 0, 0, fmt.Errorf("%w: malformed formation %q", ErrInvalidStartingEleven, raw)
		}
		counts = append(counts, value)
	}
	if 1+counts[0]+counts[1]+counts[2] != StartingElevenSize {
		return 0, 0, 0, fmt.Errorf("%w: formation %q does not add up to %d", ErrInvalidStartingEleven, raw, StartingElevenSize)
	}

	return counts[0], counts[1], counts[2], nil
}
