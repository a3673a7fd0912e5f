package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http/middleware"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
)

const (
	rateLimitPerWindow = 100
	rateLimitWindow    = time.Minute
)

type RouterDependencies struct {
	AuthHandler  *AuthHandler
	HabitHandler *HabitHandler
	ChainHandler *ChainHandler
	StatsHandler *StatsHandler
	TokenService *services.TokenService
	DB           *sqlx.DB
	Redis        *redis.Client
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()
	router.Use(corsMiddleware())

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, rateLimitPerWindow, rateLimitWindow))
	}

	router.GET("/health", healthCheck(deps))

	apiV1 := router.Group("/api/v1")
	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.HabitHandler.RegisterRoutes(protected)
		deps.ChainHandler.RegisterRoutes(protected)
		deps.StatsHandler.RegisterRoutes(protected)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// healthCheck reports dependency reachability. Redis is optional at startup,
// so a missing client reads as unreachable without failing the whole check
// when the database is still up.
func healthCheck(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK

		dbStatus := "connected"
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}

		redisStatus := "connected"
		if deps.Redis == nil || deps.Redis.Ping(c.Request.Context()).Err() != nil {
			redisStatus = "unreachable"
		}

		c.JSON(status, gin.H{
			"status":         "ok",
			"database":       dbStatus,
			"redis":          redisStatus,
			"uptime_seconds": int(time.Since(deps.StartTime).Seconds()),
		})
	}
}
