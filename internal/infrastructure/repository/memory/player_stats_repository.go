package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
)

type PlayerStatsRepository struct {
	mu         sync.RWMutex
	byGameweek map[int]map[string]playerstats.MatchStats
}

func NewPlayerStatsRepository(seed []playerstats.MatchStats) *PlayerStatsRepository {
	repo := &PlayerStatsRepository{byGameweek: make(map[int]map[string]playerstats.MatchStats)}
	for _, item := range seed {
		repo.put(item)
	}
	return repo
}

func (r *PlayerStatsRepository) ListByGameweek(_ context.Context, gameweek int) (map[string]playerstats.MatchStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byGameweek[gameweek]
	out := make(map[string]playerstats.MatchStats, len(items))
	for playerID, stats := range items {
		out[playerID] = stats
	}
	return out, nil
}

// Record adds a stats row. Rows are immutable once recorded, so a second row for the
// same player and gameweek is ignored.
func (r *PlayerStatsRepository) Record(_ context.Context, stats playerstats.MatchStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(stats)
}

func (r *PlayerStatsRepository) put(stats playerstats.MatchStats) {
	items, ok := r.byGameweek[stats.Gameweek]
	if !ok {
		items = make(map[string]playerstats.MatchStats)
		r.byGameweek[stats.Gameweek] = items
	}
	if _, exists := items[stats.PlayerID]; exists {
		return
	}
	items[stats.PlayerID] = stats
}
