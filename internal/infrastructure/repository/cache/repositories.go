package cache

import (
	"context"
	"maps"
	"strconv"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
	basecache "github.com/riskibarqy/fantasy-scoring/internal/platform/cache"
)

const (
	teamKeyPrefix  = "team:"
	statsKeyPrefix = "stats:gw:"
)

// PlayerStatsRepository caches per-gameweek stat sheets. Each caller gets its own map copy.
type PlayerStatsRepository struct {
	next  playerstats.Repository
	cache *basecache.Store[map[string]playerstats.MatchStats]
}

func NewPlayerStatsRepository(next playerstats.Repository, ttl time.Duration) *PlayerStatsRepository {
	return &PlayerStatsRepository{
		next:  next,
		cache: basecache.NewStore[map[string]playerstats.MatchStats](ttl),
	}
}

func (r *PlayerStatsRepository) ListByGameweek(ctx context.Context, gameweek int) (map[string]playerstats.MatchStats, error) {
	items, err := r.cache.GetOrLoad(ctx, statsKeyPrefix+strconv.Itoa(gameweek), func(ctx context.Context) (map[string]playerstats.MatchStats, error) {
		return r.next.ListByGameweek(ctx, gameweek)
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(items), nil
}

// TeamRepository caches single-team reads. Lists always go to the backing store so
// settlement sees the latest history; every write drops the cached teams.
type TeamRepository struct {
	next  fantasy.Repository
	cache *basecache.Store[cachedTeam]
}

type cachedTeam struct {
	value  fantasy.Team
	exists bool
}

func NewTeamRepository(next fantasy.Repository, ttl time.Duration) *TeamRepository {
	return &TeamRepository{
		next:  next,
		cache: basecache.NewStore[cachedTeam](ttl),
	}
}

func (r *TeamRepository) ListAll(ctx context.Context) ([]fantasy.Team, error) {
	return r.next.ListAll(ctx)
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]fantasy.Team, error) {
	return r.next.ListByLeague(ctx, leagueID)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (fantasy.Team, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, teamKeyPrefix+teamID, func(ctx context.Context) (cachedTeam, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return cachedTeam{}, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return fantasy.Team{}, false, err
	}
	return cached.value.Clone(), cached.exists, nil
}

func (r *TeamRepository) SaveSettlement(ctx context.Context, settlement fantasy.Settlement) (int, error) {
	defer r.cache.Delete(ctx, teamKeyPrefix+settlement.TeamID)
	return r.next.SaveSettlement(ctx, settlement)
}

func (r *TeamRepository) UpdateRanks(ctx context.Context, ranks []fantasy.RankAssignment) error {
	defer r.cache.DeletePrefix(ctx, teamKeyPrefix)
	return r.next.UpdateRanks(ctx, ranks)
}
