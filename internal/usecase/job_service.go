package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const RankingRecomputeJobPath = "/v1/internal/rankings/recompute"

// JobQueue publishes a deferred HTTP job. Implementations must honour deduplicationID.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type RankingJobPayload struct {
	Gameweek int    `json:"gameweek"`
	RunID    string `json:"run_id"`
}

type GameweekJobResult struct {
	Settlement SettlementResult `json:"settlement"`
	// RankingMode is "inline" or "queued".
	RankingMode string         `json:"ranking_mode"`
	Ranking     *RankingResult `json:"ranking,omitempty"`
}

const (
	rankingModeInline = "inline"
	rankingModeQueued = "queued"
)

type GameweekJobService struct {
	settlement *SettlementService
	ranking    *RankingService
	queue      JobQueue
	delay      time.Duration
	logger     *logging.Logger
}

// NewGameweekJobService wires settlement and ranking. A nil queue recomputes rankings inline.
func NewGameweekJobService(
	settlement *SettlementService,
	ranking *RankingService,
	queue JobQueue,
	logger *logging.Logger,
) *GameweekJobService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameweekJobService{
		settlement: settlement,
		ranking:    ranking,
		queue:      queue,
		logger:     logger,
	}
}

// WithRankingDelay postpones queued ranking jobs by delay.
func (s *GameweekJobService) WithRankingDelay(delay time.Duration) *GameweekJobService {
	if delay > 0 {
		s.delay = delay
	}
	return s
}

// RunSettlement settles a gameweek and then recomputes rankings. Ranking starts only after
// every settlement worker has returned. An interrupted settlement skips ranking.
func (s *GameweekJobService) RunSettlement(ctx context.Context, input SettleInput) (GameweekJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameweekJobService.RunSettlement", attribute.Int("gameweek", input.Gameweek))
	defer span.End()

	settled, err := s.settlement.SettleGameweek(ctx, input)
	if err != nil {
		recordSpanError(span, err)
		return GameweekJobResult{Settlement: settled}, err
	}

	out := GameweekJobResult{Settlement: settled}
	if s.queue != nil {
		payload := RankingJobPayload{Gameweek: input.Gameweek, RunID: settled.RunID}
		dedupID := fmt.Sprintf("rankings-gw-%d", input.Gameweek)
		err := s.queue.Enqueue(ctx, RankingRecomputeJobPath, payload, s.delay, dedupID)
		if err == nil {
			out.RankingMode = rankingModeQueued
			s.logger.InfoContext(ctx, "ranking recompute queued", "gameweek", input.Gameweek, "run_id", settled.RunID)
			return out, nil
		}
		s.logger.WarnContext(ctx, "queue ranking recompute failed, running inline",
			"gameweek", input.Gameweek,
			"run_id", settled.RunID,
			"error", err,
		)
	}

	ranking, err := s.ranking.RecomputeRankings(ctx)
	if err != nil {
		recordSpanError(span, err)
		return out, fmt.Errorf("recompute rankings after gameweek %d: %w", input.Gameweek, err)
	}
	out.RankingMode = rankingModeInline
	out.Ranking = &ranking
	return out, nil
}

func (s *GameweekJobService) RecomputeRankings(ctx context.Context) (RankingResult, error) {
	return s.ranking.RecomputeRankings(ctx)
}
