package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/id"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	SettlementStatusSettled = "settled"
	SettlementStatusSkipped = "skipped"
	SettlementStatusFailed  = "failed"

	// FreeTransfersPerGameweek is the allowance granted after every settled gameweek.
	FreeTransfersPerGameweek = 1

	defaultSettlementWorkers = 4
	maxSettlementWorkers     = 64
)

type SettleInput struct {
	Gameweek   int
	LeagueID   string
	MaxWorkers int
}

type SettlementResult struct {
	RunID        string                 `json:"run_id"`
	Gameweek     int                    `json:"gameweek"`
	LeagueID     string                 `json:"league_id,omitempty"`
	TeamCount    int                    `json:"team_count"`
	SettledCount int                    `json:"settled_count"`
	SkippedCount int                    `json:"skipped_count"`
	FailedCount  int                    `json:"failed_count"`
	WorkerCount  int                    `json:"worker_count"`
	DurationMs   int64                  `json:"duration_ms"`
	Teams        []TeamSettlementResult `json:"teams"`
}

type TeamSettlementResult struct {
	TeamID      string `json:"team_id"`
	Status      string `json:"status"`
	SquadPoints int    `json:"squad_points"`
	Penalty     int    `json:"penalty"`
	NetPoints   int    `json:"net_points"`
	TotalPoints int    `json:"total_points"`
	ChipPlayed  string `json:"chip_played,omitempty"`
	Message     string `json:"message,omitempty"`
	DurationMs  int64  `json:"duration_ms"`

	Err error `json:"-"`
}

type SettlementServiceConfig struct {
	DefaultWorkers int
}

type SettlementService struct {
	teamRepo       fantasy.Repository
	statsRepo      playerstats.Repository
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
	defaultWorkers int
}

func NewSettlementService(
	teamRepo fantasy.Repository,
	statsRepo playerstats.Repository,
	idGen id.Generator,
	cfg SettlementServiceConfig,
	logger *logging.Logger,
) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	workers := cfg.DefaultWorkers
	if workers <= 0 {
		workers = defaultSettlementWorkers
	}

	return &SettlementService{
		teamRepo:       teamRepo,
		statsRepo:      statsRepo,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
		defaultWorkers: workers,
	}
}

// SettleGameweek loads the teams in scope and the gameweek's stats, then settles them.
func (s *SettlementService) SettleGameweek(ctx context.Context, input SettleInput) (SettlementResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleGameweek",
		attribute.Int("gameweek", input.Gameweek),
		attribute.String("league_id", input.LeagueID),
	)
	defer span.End()

	if input.Gameweek <= 0 {
		return SettlementResult{}, fmt.Errorf("%w: gameweek must be positive, got %d", ErrInvalidInput, input.Gameweek)
	}

	var (
		teams []fantasy.Team
		err   error
	)
	leagueID := strings.TrimSpace(input.LeagueID)
	if leagueID == "" {
		teams, err = s.teamRepo.ListAll(ctx)
	} else {
		teams, err = s.teamRepo.ListByLeague(ctx, leagueID)
	}
	if err != nil {
		recordSpanError(span, err)
		return SettlementResult{}, fmt.Errorf("list fantasy teams: %w", err)
	}

	stats, err := s.statsRepo.ListByGameweek(ctx, input.Gameweek)
	if err != nil {
		recordSpanError(span, err)
		return SettlementResult{}, fmt.Errorf("list player stats gameweek=%d: %w", input.Gameweek, err)
	}

	result, err := s.settle(ctx, input.Gameweek, teams, stats, input.MaxWorkers)
	result.LeagueID = leagueID
	recordSpanError(span, err)
	return result, err
}

// SettleTeams scores and persists one gameweek for every team in the slice. A failing team
// never aborts the batch; its outcome is reported in the result instead.
func (s *SettlementService) SettleTeams(
	ctx context.Context,
	gameweek int,
	teams []fantasy.Team,
	statsByPlayer map[string]playerstats.MatchStats,
) (SettlementResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleTeams", attribute.Int("gameweek", gameweek))
	defer span.End()

	if gameweek <= 0 {
		return SettlementResult{}, fmt.Errorf("%w: gameweek must be positive, got %d", ErrInvalidInput, gameweek)
	}
	return s.settle(ctx, gameweek, teams, statsByPlayer, 0)
}

func (s *SettlementService) settle(
	ctx context.Context,
	gameweek int,
	teams []fantasy.Team,
	statsByPlayer map[string]playerstats.MatchStats,
	maxWorkers int,
) (SettlementResult, error) {
	start := s.now()
	runID, err := s.idGen.NewID()
	if err != nil {
		return SettlementResult{}, fmt.Errorf("generate settlement run id: %w", err)
	}

	workerCount := s.normalizeWorkerCount(maxWorkers, len(teams))
	result := SettlementResult{
		RunID:       runID,
		Gameweek:    gameweek,
		TeamCount:   len(teams),
		WorkerCount: workerCount,
		Teams:       make([]TeamSettlementResult, 0, len(teams)),
	}
	if len(teams) == 0 {
		s.logger.InfoContext(ctx, "gameweek settlement has no teams", "run_id", runID, "gameweek", gameweek)
		return result, nil
	}
	if statsByPlayer == nil {
		statsByPlayer = map[string]playerstats.MatchStats{}
	}

	s.logger.InfoContext(ctx, "gameweek settlement started",
		"run_id", runID,
		"gameweek", gameweek,
		"team_count", len(teams),
		"worker_count", workerCount,
	)

	results := make(chan TeamSettlementResult, len(teams))

	var settledCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32
	record := func(row TeamSettlementResult) {
		switch row.Status {
		case SettlementStatusSettled:
			settledCount.Add(1)
		case SettlementStatusSkipped:
			skippedCount.Add(1)
		default:
			failedCount.Add(1)
		}
		results <- row
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	var cancelErr error
	for idx, item := range teams {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			for _, rest := range teams[idx:] {
				record(failedTeamResult(rest.ID, err))
			}
			break
		}

		team := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			record(s.settleTeam(ctx, gameweek, team, statsByPlayer))
		}); err != nil {
			workers.Done()
			record(failedTeamResult(team.ID, fmt.Errorf("submit team to worker pool: %w", err)))
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		if row.Status == SettlementStatusFailed {
			s.logger.WarnContext(ctx, "team settlement failed",
				"run_id", runID,
				"gameweek", gameweek,
				"team_id", row.TeamID,
				"error", row.Message,
			)
		}
		result.Teams = append(result.Teams, row)
	}

	sort.SliceStable(result.Teams, func(i, j int) bool {
		return result.Teams[i].TeamID < result.Teams[j].TeamID
	})

	result.SettledCount = int(settledCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.DurationMs = s.now().Sub(start).Milliseconds()

	s.logger.InfoContext(ctx, "gameweek settlement finished",
		"run_id", runID,
		"gameweek", gameweek,
		"settled", result.SettledCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
		"duration_ms", result.DurationMs,
	)

	if cancelErr != nil {
		return result, fmt.Errorf("gameweek settlement interrupted: %w", cancelErr)
	}
	return result, nil
}

func (s *SettlementService) settleTeam(
	ctx context.Context,
	gameweek int,
	team fantasy.Team,
	statsByPlayer map[string]playerstats.MatchStats,
) TeamSettlementResult {
	start := time.Now()
	row := TeamSettlementResult{
		TeamID:     team.ID,
		ChipPlayed: string(team.ActiveChip),
	}
	finish := func(status string, err error) TeamSettlementResult {
		row.Status = status
		row.Err = err
		if err != nil {
			row.Message = err.Error()
		}
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	}

	if err := ctx.Err(); err != nil {
		return finish(SettlementStatusFailed, err)
	}
	if team.HasRecord(gameweek) {
		return finish(SettlementStatusSkipped, fmt.Errorf("%w: team=%s gameweek=%d", fantasy.ErrDuplicateSettlement, team.ID, gameweek))
	}

	chip := team.ActiveChip
	var chipUsed *fantasy.ChipUsage
	if chip != fantasy.ChipNone {
		if _, known := fantasy.AllChips[chip]; !known {
			return finish(SettlementStatusFailed, fmt.Errorf("%w: unknown chip %q", fantasy.ErrChipUnavailable, chip))
		}
		if _, ok := team.AvailableChip(chip); !ok {
			return finish(SettlementStatusFailed, fmt.Errorf("%w: %s already used or not owned", fantasy.ErrChipUnavailable, chip))
		}
		chipUsed = &fantasy.ChipUsage{Type: chip, Gameweek: gameweek}
	}

	evaluation, err := scoring.EvaluateGameweek(team, statsByPlayer)
	if err != nil {
		return finish(SettlementStatusFailed, err)
	}

	transfers := max(0, team.TransfersMade)
	penalty := scoring.TransferPenalty(team.FreeTransfers, transfers, chip)
	net := evaluation.Total + penalty

	freeTransfers := FreeTransfersPerGameweek
	if chip.WaivesTransferPenalty() {
		freeTransfers = max(0, team.FreeTransfers)
	}

	settlement := fantasy.Settlement{
		TeamID: team.ID,
		Record: fantasy.GameweekRecord{
			Gameweek:   gameweek,
			Points:     net,
			Transfers:  transfers,
			Penalty:    penalty,
			ChipPlayed: chip,
			SettledAt:  s.now().UTC(),
		},
		FreeTransfers: freeTransfers,
		TransfersMade: 0,
		ChipUsed:      chipUsed,
	}

	row.SquadPoints = evaluation.Total
	row.Penalty = penalty
	row.NetPoints = net

	totalPoints, err := s.teamRepo.SaveSettlement(ctx, settlement)
	if err != nil {
		if errors.Is(err, fantasy.ErrDuplicateSettlement) {
			return finish(SettlementStatusSkipped, err)
		}
		return finish(SettlementStatusFailed, fmt.Errorf("save settlement team=%s: %w", team.ID, err))
	}

	row.TotalPoints = totalPoints
	return finish(SettlementStatusSettled, nil)
}

func (s *SettlementService) normalizeWorkerCount(value, teamCount int) int {
	if teamCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = s.defaultWorkers
	}
	if value > maxSettlementWorkers {
		value = maxSettlementWorkers
	}
	if value > teamCount {
		value = teamCount
	}
	return value
}

func failedTeamResult(teamID string, err error) TeamSettlementResult {
	return TeamSettlementResult{
		TeamID:  teamID,
		Status:  SettlementStatusFailed,
		Message: err.Error(),
		Err:     err,
	}
}
