package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/crm-realtime/internal/api/http"
	"github.com/spec-kit/crm-realtime/internal/api/http/handlers"
	"github.com/spec-kit/crm-realtime/internal/api/ws"
	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/config"
	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/notify"
	"github.com/spec-kit/crm-realtime/internal/observability"
	"github.com/spec-kit/crm-realtime/internal/persistence"
	"github.com/spec-kit/crm-realtime/internal/realtime"
	"github.com/spec-kit/crm-realtime/internal/repository"
	"github.com/spec-kit/crm-realtime/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)

	metrics := observability.NewMetrics()
	rules := domain.DefaultEscalationRules()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	verifier := auth.NewVerifier(tokens, userRepo)

	registry := realtime.NewRegistry()
	limiter := realtime.NewRateLimiter(cfg.Realtime.RateLimitPerMinute)
	bridge := realtime.NewRedisBridge(redis, cfg.Redis.BridgeChannel, logger)

	var publisher realtime.Publisher
	if bridge != nil {
		publisher = bridge
	}
	router := realtime.NewRouter(registry, publisher, metrics, logger)
	if bridge != nil {
		go bridge.Run(ctx, router)
	}

	ledger := notify.NewLedger()
	notifier := notify.NewDispatcher(notify.Dependencies{
		Sender: router,
		Roles:  userRepo,
		Ledger: ledger,
		Rules:  rules,
		Logger: logger,
	})

	escalation := scheduler.NewEscalation(scheduler.Config{
		Tickets:    ticketRepo,
		Dispatcher: notifier,
		Ledger:     ledger,
		Rules:      rules,
		Interval:   cfg.Escalation.TickInterval,
		Retention:  cfg.Escalation.LedgerRetention,
		Metrics:    metrics,
		Logger:     logger,
	})
	go escalation.Run(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	wsHandler := ws.NewHandler(ws.Dependencies{
		Verifier:       verifier,
		Registry:       registry,
		Limiter:        limiter,
		Router:         router,
		Organizations:  orgRepo,
		Tickets:        ticketRepo,
		Notifier:       notifier,
		Metrics:        metrics,
		Logger:         logger,
		SendBufferSize: cfg.Realtime.SendBufferSize,
	})
	wsHandler.Register(app)

	authMiddleware := auth.NewMiddleware(verifier)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		SLA:            handlers.NewSLAHandler(ticketRepo, ledger, rules),
		Presence:       handlers.NewPresenceHandler(registry),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
