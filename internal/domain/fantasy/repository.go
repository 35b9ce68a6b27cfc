package fantasy

import "context"

// Repository describes fantasy team persistence needs from use cases.
type Repository interface {
	ListAll(ctx context.Context) ([]Team, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	// SaveSettlement appends the gameweek record, adds its points to the stored total,
	// applies counter resets and marks the chip used in one atomic write. It returns the
	// new total, or ErrDuplicateSettlement when the team already has a record for the
	// gameweek.
	SaveSettlement(ctx context.Context, settlement Settlement) (int, error)
	UpdateRanks(ctx context.Context, ranks []RankAssignment) error
}
