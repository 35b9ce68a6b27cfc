package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"
)

type RankingResult struct {
	TeamCount    int                      `json:"team_count"`
	CountryCount int                      `json:"country_count"`
	Assignments  []fantasy.RankAssignment `json:"-"`
}

type RankingService struct {
	teamRepo fantasy.Repository
	logger   *logging.Logger
}

func NewRankingService(teamRepo fantasy.Repository, logger *logging.Logger) *RankingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RankingService{
		teamRepo: teamRepo,
		logger:   logger,
	}
}

// RecomputeRankings ranks every persisted team. Run it only after a settlement batch has
// finished so no team is ranked on a partial total.
func (s *RankingService) RecomputeRankings(ctx context.Context) (RankingResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.RecomputeRankings")
	defer span.End()

	teams, err := s.teamRepo.ListAll(ctx)
	if err != nil {
		recordSpanError(span, err)
		return RankingResult{}, fmt.Errorf("list fantasy teams: %w", err)
	}

	result, err := s.RankTeams(ctx, teams)
	recordSpanError(span, err)
	return result, err
}

// RankTeams ranks exactly the given teams and persists every assignment, changed or not.
// Teams missing from the slice keep whatever rank they had.
func (s *RankingService) RankTeams(ctx context.Context, teams []fantasy.Team) (RankingResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.RankTeams", attribute.Int("team_count", len(teams)))
	defer span.End()

	assignments := AssignRanks(teams)
	result := RankingResult{
		TeamCount:    len(assignments),
		CountryCount: countCountries(teams),
		Assignments:  assignments,
	}
	if len(assignments) == 0 {
		return result, nil
	}

	if err := s.teamRepo.UpdateRanks(ctx, assignments); err != nil {
		recordSpanError(span, err)
		return RankingResult{}, fmt.Errorf("update ranks: %w", err)
	}

	s.logger.InfoContext(ctx, "rankings recomputed",
		"team_count", result.TeamCount,
		"country_count", result.CountryCount,
	)
	return result, nil
}

// AssignRanks orders teams by total points descending, then by creation time and team id,
// and returns 1-based global and country ranks in global order. Teams without a country
// get country rank 0.
func AssignRanks(teams []fantasy.Team) []fantasy.RankAssignment {
	if len(teams) == 0 {
		return nil
	}

	ordered := append([]fantasy.Team(nil), teams...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rankLess(ordered[i], ordered[j])
	})

	scopes := groupByCountry(ordered)
	countryRanks := make(map[string]int, len(ordered))
	for _, ranked := range iter.Map(scopes, rankCountryScope) {
		for teamID, rank := range ranked {
			countryRanks[teamID] = rank
		}
	}

	out := make([]fantasy.RankAssignment, 0, len(ordered))
	for idx, team := range ordered {
		out = append(out, fantasy.RankAssignment{
			TeamID:      team.ID,
			GlobalRank:  idx + 1,
			CountryRank: countryRanks[team.ID],
		})
	}
	return out
}

func rankLess(a, b fantasy.Team) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func groupByCountry(teams []fantasy.Team) [][]fantasy.Team {
	indexByCountry := make(map[string]int)
	scopes := make([][]fantasy.Team, 0)
	for _, team := range teams {
		country := normalizeCountry(team.OwnerCountry)
		if country == "" {
			continue
		}
		idx, ok := indexByCountry[country]
		if !ok {
			idx = len(scopes)
			indexByCountry[country] = idx
			scopes = append(scopes, nil)
		}
		scopes[idx] = append(scopes[idx], team)
	}
	return scopes
}

func rankCountryScope(scope *[]fantasy.Team) map[string]int {
	teams := *scope
	sort.SliceStable(teams, func(i, j int) bool {
		return rankLess(teams[i], teams[j])
	})

	out := make(map[string]int, len(teams))
	for idx, team := range teams {
		out[team.ID] = idx + 1
	}
	return out
}

func countCountries(teams []fantasy.Team) int {
	seen := make(map[string]struct{})
	for _, team := range teams {
		if country := normalizeCountry(team.OwnerCountry); country != "" {
			seen[country] = struct{}{}
		}
	}
	return len(seen)
}

func normalizeCountry(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
