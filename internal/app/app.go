package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/fantasy-scoring/external/jobqueue"
	"github.com/riskibarqy/fantasy-scoring/internal/config"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-scoring/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-scoring/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-scoring/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/fantasy-scoring/internal/platform/id"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Services is the wired use case layer shared by the HTTP server and the settle CLI.
type Services struct {
	Settlement *usecase.SettlementService
	Ranking    *usecase.RankingService
	Jobs       *usecase.GameweekJobService
	Points     *usecase.PointsService
}

// BuildServices selects the storage backend from cfg and wires every use case.
// The returned cleanup closes the database handle when one was opened.
func BuildServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	teamRepo, statsRepo, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheEnabled && cfg.CacheTTL > 0 {
		teamRepo = cache.NewTeamRepository(teamRepo, cfg.CacheTTL)
		statsRepo = cache.NewPlayerStatsRepository(statsRepo, cfg.CacheTTL)
	}

	settlement := usecase.NewSettlementService(
		teamRepo,
		statsRepo,
		idgen.NewPrefixedGenerator("settle"),
		usecase.SettlementServiceConfig{DefaultWorkers: cfg.SettlementMaxWorkers},
		logger.Component("settlement"),
	)
	ranking := usecase.NewRankingService(teamRepo, logger.Component("ranking"))

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		publisher, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("build qstash publisher: %w", err), cleanup())
		}
		queue = publisher
	}

	jobs := usecase.NewGameweekJobService(settlement, ranking, queue, logger.Component("gameweek_job")).
		WithRankingDelay(cfg.RankingDelay)

	return &Services{
		Settlement: settlement,
		Ranking:    ranking,
		Jobs:       jobs,
		Points:     usecase.NewPointsService(teamRepo, statsRepo),
	}, cleanup, nil
}

// NewHTTPServer builds the API server. Call cleanup after the server has shut down.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	services, cleanup, err := BuildServices(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(services.Jobs, services.Points, logger.Component("httpapi"))
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return server, cleanup, nil
}

func buildRepositories(
	ctx context.Context,
	cfg config.Config,
	logger *logging.Logger,
) (fantasy.Repository, playerstats.Repository, func() error, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		logger.Info("using in-memory repositories", "reason", "DB_URL empty")
		teamRepo, err := memory.NewSeededTeamRepository(memory.SeedTeams())
		if err != nil {
			return nil, nil, nil, err
		}
		noop := func() error { return nil }
		return teamRepo, memory.NewPlayerStatsRepository(memory.SeedPlayerStats()), noop, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.DBBootstrapSeed {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			return nil, nil, nil, errors.Join(fmt.Errorf("bootstrap seed: %w", err), db.Close())
		}
		logger.Info("database seed checked")
	}

	logger.Info("using postgres repositories", "db_name", dbNameFromURL(cfg.DBURL))
	return postgres.NewTeamRepository(db), postgres.NewPlayerStatsRepository(db), db.Close, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open(
		"postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(max(cfg.SettlementMaxWorkers*2, 10))
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}
	return db, nil
}
