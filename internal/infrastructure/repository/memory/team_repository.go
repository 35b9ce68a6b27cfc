package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
)

// TeamRepository keeps fantasy teams in memory. SaveSettlement holds the write lock for
// the whole check-and-apply, which makes it atomic per team.
type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]fantasy.Team
	now   func() time.Time
}

func NewTeamRepository(seed []fantasy.Team) *TeamRepository {
	items := make(map[string]fantasy.Team, len(seed))
	for _, item := range seed {
		items[item.ID] = item.Clone()
	}
	return &TeamRepository{items: items, now: time.Now}
}

func (r *TeamRepository) ListAll(_ context.Context) ([]fantasy.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fantasy.Team, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	sortTeams(out)
	return out, nil
}

func (r *TeamRepository) ListByLeague(_ context.Context, leagueID string) ([]fantasy.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fantasy.Team, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID {
			out = append(out, item.Clone())
		}
	}
	sortTeams(out)
	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (fantasy.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[teamID]
	if !ok {
		return fantasy.Team{}, false, nil
	}
	return item.Clone(), true, nil
}

// NewSeededTeamRepository rejects seed teams whose squad or starting eleven is illegal.
func NewSeededTeamRepository(seed []fantasy.Team) (*TeamRepository, error) {
	for _, team := range seed {
		if err := fantasy.ValidateRoster(team); err != nil {
			return nil, fmt.Errorf("invalid seed: %w", err)
		}
	}
	return NewTeamRepository(seed), nil
}

// Upsert stores a team as-is. It is used by seeding and tests.
func (r *TeamRepository) Upsert(_ context.Context, team fantasy.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[team.ID] = team.Clone()
	return nil
}

func (r *TeamRepository) SaveSettlement(_ context.Context, settlement fantasy.Settlement) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[settlement.TeamID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", fantasy.ErrTeamNotFound, settlement.TeamID)
	}
	if item.HasRecord(settlement.Record.Gameweek) {
		return 0, fmt.Errorf("%w: team=%s gameweek=%d", fantasy.ErrDuplicateSettlement, settlement.TeamID, settlement.Record.Gameweek)
	}

	if settlement.ChipUsed != nil {
		idx, available := item.AvailableChip(settlement.ChipUsed.Type)
		if !available {
			return 0, fmt.Errorf("%w: %s", fantasy.ErrChipUnavailable, settlement.ChipUsed.Type)
		}
		item.Chips[idx].Used = true
		item.Chips[idx].GameweekUsed = settlement.ChipUsed.Gameweek
	}

	item.History = append(item.History, settlement.Record)
	item.TotalPoints += settlement.Record.Points
	item.FreeTransfers = settlement.FreeTransfers
	item.TransfersMade = settlement.TransfersMade
	item.ActiveChip = fantasy.ChipNone
	item.UpdatedAt = r.now().UTC()

	r.items[item.ID] = item
	return item.TotalPoints, nil
}

func (r *TeamRepository) UpdateRanks(_ context.Context, ranks []fantasy.RankAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rank := range ranks {
		item, ok := r.items[rank.TeamID]
		if !ok {
			continue
		}
		item.GlobalRank = rank.GlobalRank
		item.CountryRank = rank.CountryRank
		r.items[item.ID] = item
	}
	return nil
}

func sortTeams(items []fantasy.Team) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
}
