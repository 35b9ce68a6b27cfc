// Command settle runs gameweek settlement and ranking recomputes outside the HTTP API.
//
// Usage:
//
//	fantasy-settle settle --gameweek 3
//	fantasy-settle settle --gameweek 3 --league idn-liga-1-2025 --workers 8
//	fantasy-settle rankings
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fantasy-scoring/internal/app"
	"github.com/riskibarqy/fantasy-scoring/internal/config"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "fantasy-settle",
		Short:         "Fantasy scoring settlement CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(settleCmd())
	root.AddCommand(rankingsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func settleCmd() *cobra.Command {
	var (
		gameweek int
		leagueID string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settle every team in scope for one gameweek, then recompute rankings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if gameweek <= 0 {
				return fmt.Errorf("--gameweek must be positive")
			}
			return run(func(ctx context.Context, services *app.Services, logger *logging.Logger) error {
				start := time.Now()
				result, err := services.Jobs.RunSettlement(ctx, usecase.SettleInput{
					Gameweek:   gameweek,
					LeagueID:   leagueID,
					MaxWorkers: workers,
				})
				logger.Info("gameweek settlement finished",
					"gameweek", gameweek,
					"run_id", result.Settlement.RunID,
					"teams", result.Settlement.TeamCount,
					"settled", result.Settlement.SettledCount,
					"skipped", result.Settlement.SkippedCount,
					"failed", result.Settlement.FailedCount,
					"ranking_mode", result.RankingMode,
					"duration", time.Since(start).Round(time.Millisecond),
				)
				for _, team := range result.Settlement.Teams {
					if team.Status == usecase.SettlementStatusFailed {
						logger.Error("team settlement failed", "team_id", team.TeamID, "error", team.Message)
					}
				}
				if err != nil {
					return err
				}
				if result.Settlement.FailedCount > 0 {
					return fmt.Errorf("%d team(s) failed to settle", result.Settlement.FailedCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&gameweek, "gameweek", 0, "Gameweek number to settle")
	cmd.Flags().StringVar(&leagueID, "league", "", "Restrict settlement to one league")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (defaults to SETTLEMENT_MAX_WORKERS)")
	_ = cmd.MarkFlagRequired("gameweek")
	return cmd
}

func rankingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rankings",
		Short: "Recompute global and country ranks from current totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(func(ctx context.Context, services *app.Services, logger *logging.Logger) error {
				result, err := services.Ranking.RecomputeRankings(ctx)
				if err != nil {
					return err
				}
				logger.Info("rankings recomputed", "teams", result.TeamCount, "countries", result.CountryCount)
				return nil
			})
		},
	}
}

func run(fn func(ctx context.Context, services *app.Services, logger *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The CLI always ranks inline.
	cfg.QStashEnabled = false

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Service: "fantasy-settle",
		Version: cfg.ServiceVersion,
		Env:     cfg.AppEnv,
	})
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, cleanup, err := app.BuildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return errors.Join(fn(ctx, services, logger), cleanup())
}
