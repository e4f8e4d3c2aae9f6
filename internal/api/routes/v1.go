package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tokenarena/internal/api/controllers"
	"tokenarena/internal/coordinator"
	"tokenarena/internal/eventbus"
	"tokenarena/internal/middleware"
	"tokenarena/internal/repositories"
	"tokenarena/internal/snapshot"
	"tokenarena/internal/strategy"
	"tokenarena/internal/websocket"

	"gorm.io/gorm"
)

// Deps bundles everything RegisterRoutes needs to wire the admin and public
// controllers; cmd/server/main.go builds one of these at startup.
type Deps struct {
	DB              *gorm.DB
	Manager         *coordinator.Manager
	SnapshotGateway *snapshot.Gateway
	Compiler        *strategy.Compiler
	MatchRepo       *repositories.MatchRepository
	ParticipantRepo *repositories.ParticipantRepository
	WinnerRepo      *repositories.WinnerRepository
	BurnRepo        *repositories.BurnRepository
	BalanceProjRepo *repositories.BalanceProjectionRepository
	EventBus        eventbus.EventBusInterface
	AdminAllowlist  []string
	RateLimitPerMin int
}

// RegisterRoutes wires the public and admin HTTP surfaces described in the
// external interfaces section: bot creation/read endpoints unauthenticated
// behind a per-IP rate limiter, admin match-lifecycle endpoints behind an
// address-allowlist bearer token, and a websocket upgrade for leaderboard
// push.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	publicCtl := controllers.NewPublicController(deps.DB, deps.Manager, deps.Compiler, deps.MatchRepo, deps.ParticipantRepo, deps.WinnerRepo, deps.BurnRepo, deps.BalanceProjRepo)
	adminCtl := controllers.NewAdminController(deps.Manager, deps.MatchRepo, deps.WinnerRepo, deps.SnapshotGateway)

	rateLimit := deps.RateLimitPerMin
	if rateLimit <= 0 {
		rateLimit = 60
	}

	public := r.Group("/")
	public.Use(middleware.RateLimiter(rateLimit, minuteWindow))
	{
		public.POST("/bot", publicCtl.CreateBot)
		public.GET("/bot/:id", publicCtl.BotDetail)
		public.GET("/leaderboard", publicCtl.Leaderboard)
		public.GET("/match/current", publicCtl.CurrentMatch)
		public.GET("/match/history", publicCtl.MatchHistory)
		public.GET("/match/results/:id", publicCtl.MatchResults)
		public.GET("/ws/leaderboard", websocketUpgrade)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(deps.AdminAllowlist))
	{
		admin.POST("/match", adminCtl.CreateMatch)
		admin.POST("/match/:id/start", adminCtl.StartMatch)
		admin.POST("/match/:id/reset", adminCtl.ResetMatch)
		admin.POST("/match/:id/settle", adminCtl.SettleMatch)
		admin.POST("/winner/:id/mark-paid", adminCtl.MarkWinnerPaid)
		admin.GET("/api-usage", adminCtl.APIUsage)
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := deps.DB.DB()
		status := "healthy"
		if err != nil || sqlDB.Ping() != nil {
			status = "unhealthy"
		}
		resp := gin.H{"service": "tokenarena", "status": status}
		if deps.EventBus != nil {
			resp["event_bus"] = deps.EventBus.Health()
			resp["leaderboard_subscribers"] = deps.EventBus.GetSubscriberCount(eventbus.EventTypeTickCompleted)
		}
		c.JSON(http.StatusOK, resp)
	})
}

const minuteWindow = time.Minute

func websocketUpgrade(c *gin.Context) {
	websocket.WebSocketHandler(c)
}
