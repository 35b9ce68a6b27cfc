package player

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPosition = errors.New("invalid position")

// Position represents football position categories used in fantasy rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

func ParsePosition(raw string) (Position, error) {
	pos := Position(strings.ToUpper(strings.TrimSpace(raw)))
	if err := pos.Validate(); err != nil {
		return "", err
	}
	return pos, nil
}

func (p Position) Validate() error {
	if _, ok := AllPositions[p]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, string(p))
	}
	return nil
}

// ConcedesGoals reports whether goals conceded and clean sheets weigh on the position
// the way they do for the defensive line.
func (p Position) ConcedesGoals() bool {
	return p == PositionGoalkeeper || p == PositionDefender
}
