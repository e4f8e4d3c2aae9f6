package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tokenarena/internal/api/routes"
	"tokenarena/internal/cache"
	"tokenarena/internal/config"
	"tokenarena/internal/coordinator"
	"tokenarena/internal/database"
	"tokenarena/internal/eventbus"
	"tokenarena/internal/logger"
	"tokenarena/internal/middleware"
	"tokenarena/internal/observability"
	"tokenarena/internal/repositories"
	"tokenarena/internal/snapshot"
	"tokenarena/internal/strategy"
	"tokenarena/internal/subscribers"
	"tokenarena/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DBDSN()), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatal("db connection failed: ", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := database.AutoMigrateAll(db); err != nil {
		log.Fatal("migration failed: ", err)
	}

	otelShutdown, err := observability.SetupOTelSDK(context.Background())
	if err != nil {
		log.Fatal("otel setup failed: ", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()
	metrics := observability.NewMetricsCollector(db, "tokenarena")

	store := cache.NewStore(cfg.RedisAddr)
	eb := eventbus.NewEventBusWithRedis(cfg.RedisAddr)

	appLogger := logger.NewLogger("tokenarena", db)

	auditSubscriber := subscribers.NewSettlementAuditSubscriber(db)
	auditSubscriber.Subscribe(eb)

	snapshotGateway := snapshot.NewGateway(store, cfg.PriceFeedURL, cfg.PriceFeedAPIKey,
		cfg.SnapshotCacheTTL, cfg.SnapshotInflightTTL, cfg.RateLimitPerMinute, cfg.MonthlyCreditCap)

	var llmClient *llm.OpenAIClient
	if cfg.LLMParseEnabled {
		llmClient = llm.NewOpenAIClientWithParams(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}
	compiler := strategy.New(llmClient, cfg.LLMParseEnabled)

	matchRepo := repositories.NewMatchRepository(db)
	participantRepo := repositories.NewParticipantRepository(db)
	winnerRepo := repositories.NewWinnerRepository(db)
	burnRepo := repositories.NewBurnRepository(db)
	balanceProjRepo := repositories.NewBalanceProjectionRepository(db)

	coordDeps := coordinator.Deps{
		SnapshotGateway: snapshotGateway,
		MatchRepo:       matchRepo,
		ParticipantRepo: participantRepo,
		WinnerRepo:      winnerRepo,
		BalanceProjRepo: balanceProjRepo,
		Store:           store,
		EventBus:        eb,
		Logger:          appLogger,
		TickMinDelay:    cfg.TickMinDelay,
		TickJitter:      cfg.TickJitter,
	}
	manager := coordinator.NewManager(coordDeps, cfg.MatchDuration)
	coordinator.SubscribeLeaderboard(eb)

	resumeRunningMatch(manager, matchRepo, appLogger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	routes.RegisterRoutes(r, routes.Deps{
		DB:              db,
		Manager:         manager,
		SnapshotGateway: snapshotGateway,
		Compiler:        compiler,
		MatchRepo:       matchRepo,
		ParticipantRepo: participantRepo,
		WinnerRepo:      winnerRepo,
		BurnRepo:        burnRepo,
		BalanceProjRepo: balanceProjRepo,
		EventBus:        eb,
		AdminAllowlist:  cfg.AdminAllowlist,
		RateLimitPerMin: cfg.RateLimitPerMinute,
	})

	metrics.RecordCounter("tokenarena.startup", 1, map[string]string{"mode": gin.Mode()})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("tokenarena listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("server forced to shutdown: ", err)
	}
	if err := eb.Close(); err != nil {
		log.Printf("event bus close: %v", err)
	}
	log.Println("server exiting")
}

// resumeRunningMatch reattaches a Coordinator to whatever match was left
// Running across a process restart, so an in-flight competition round
// survives a deploy.
func resumeRunningMatch(manager *coordinator.Manager, matchRepo *repositories.MatchRepository, log_ *logger.Logger) {
	match, err := matchRepo.GetRunning()
	if err != nil || match.ID == 0 {
		return
	}
	if _, err := manager.StartMatch(context.Background(), match.ID); err != nil {
		log_.Error("failed to resume running match on startup", err, "match_id", match.ID)
	}
}
