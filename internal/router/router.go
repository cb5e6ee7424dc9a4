package router

import (
	"time"

	"stocktake/internal/config"
	"stocktake/internal/handler"
	"stocktake/internal/infra"
	"stocktake/internal/middleware"
	"stocktake/internal/repository"
	"stocktake/internal/service"
	"stocktake/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpBreaker *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	itemRepo := repository.NewItemRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	sessionSvc := service.NewSessionService(sessionRepo, itemRepo, activityRepo, userRepo)
	lookupSvc := service.NewLookupService(itemRepo, rdb)

	// Worker dispatcher — injected into the count engine for zone-completion
	// notifications
	dispatcher := worker.NewDispatcher(rdb)
	countSvc := service.NewCountService(itemRepo, activityRepo, sessionRepo, userRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	countsH := handler.NewCountsHandler(countSvc)
	itemsH := handler.NewItemsHandler(lookupSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpBreaker))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole("counter", "supervisor", "admin")
	supervise := middleware.RequireRole("supervisor", "admin")

	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", anyRole, authH.Me)

		// Session lifecycle — starting and closing need supervisor rights;
		// everyone on the floor reads and joins.
		v1.POST("/sessions", supervise, sessionsH.Start)
		v1.GET("/sessions/active", anyRole, sessionsH.Active)
		v1.GET("/sessions/:id", anyRole, sessionsH.Get)
		v1.POST("/sessions/:id/join", anyRole, sessionsH.Join)
		v1.GET("/sessions/:id/summary", anyRole, sessionsH.Summary)
		v1.GET("/sessions/:id/activity", anyRole, sessionsH.Activity)
		v1.POST("/sessions/:id/close", supervise, sessionsH.Close)

		// Item lookup and listing
		v1.GET("/sessions/:id/items", anyRole, itemsH.List)
		v1.GET("/sessions/:id/items/:item_id", anyRole, itemsH.Get)
		v1.GET("/sessions/:id/lookup", anyRole, itemsH.Lookup)
		v1.GET("/sessions/:id/scan", anyRole, itemsH.Scan)

		// Counting and verification
		v1.POST("/sessions/:id/counts", anyRole, countsH.Submit)
		v1.POST("/sessions/:id/items/:item_id/verify", supervise, countsH.Verify)
		v1.POST("/sessions/:id/verify-bulk", supervise, countsH.BulkVerify)

		// User administration
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.GET("/:id", usersH.Get)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.POST("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
