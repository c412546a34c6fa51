package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mathieu-neron/adwatch/internal/config"
	"github.com/mathieu-neron/adwatch/internal/db"
	"github.com/mathieu-neron/adwatch/internal/handler"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/repository"
	"github.com/mathieu-neron/adwatch/internal/router"
	"github.com/mathieu-neron/adwatch/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "adwatch", cfg.LogHashSalt)
	log := middleware.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	profileRepo := repository.NewProfileRepo(pool)
	campaignRepo := repository.NewCampaignRepo(pool)
	ledgerRepo := repository.NewLedgerRepo(pool)

	sessions := service.NewSessionService(profileRepo, cfg.CashAnimationDuration, service.LogRenderer)
	defer sessions.CloseAll()

	ledger := service.NewLedgerService(ledgerRepo, cfg.LedgerRPCTimeout)
	withdrawals := service.NewWithdrawalService(ledgerRepo, cfg.MinWithdrawal, cfg.LedgerRPCTimeout)
	campaigns := service.NewCampaignService(campaignRepo, cache)
	worker := service.NewCampaignWorker(campaigns, cfg.CampaignRefreshInterval)

	handler.InitMetrics(pool, sessions.Count)

	app := fiber.New(fiber.Config{
		AppName:      "adwatch API",
		ServerHeader: "adwatch",
	})

	limits := middleware.NewRateLimits()
	defer limits.Stop()

	router.Setup(app, &router.Handlers{
		Health:       handler.NewHealthHandler(pool, cache.Client(), sessions.Count),
		Session:      handler.NewSessionHandler(sessions, withdrawals),
		Campaign:     handler.NewCampaignHandler(campaigns),
		Reward:       handler.NewRewardHandler(sessions, ledger),
		Withdrawal:   handler.NewWithdrawalHandler(sessions, withdrawals),
		Presentation: handler.NewPresentationHandler(sessions),
	}, limits, cfg.CORSOrigins)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Str("min_withdrawal", cfg.MinWithdrawal.String()).
			Msg("adwatch backend starting")
		return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped with error")
	}
}
