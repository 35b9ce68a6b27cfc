package playerstats

import "context"

// Repository is the read side of recorded match statistics.
type Repository interface {
	ListByGameweek(ctx context.Context, gameweek int) (map[string]MatchStats, error)
}
