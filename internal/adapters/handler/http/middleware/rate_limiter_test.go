package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	_ = godotenv.Load("../../../../../.env")

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping integration test (redis down): %v", err)
	}

	rdb.FlushDB(context.Background())
	return rdb
}

func limitedRouter(rdb *redis.Client, limit int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimiterMiddleware(rdb, limit, time.Minute))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func hitFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware_Integration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := setupTestRedis(t)
	defer rdb.Close()

	t.Run("Counts down remaining within the window", func(t *testing.T) {
		rdb.FlushDB(context.Background())
		const limit = 4
		router := limitedRouter(rdb, limit)

		for i := 1; i <= limit; i++ {
			w := hitFrom(router, "10.0.0.1")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, strconv.Itoa(limit), w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, strconv.Itoa(limit-i), w.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("Rejects the request past the limit with a retry hint", func(t *testing.T) {
		rdb.FlushDB(context.Background())
		router := limitedRouter(rdb, 2)

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hitFrom(router, "10.0.0.2").Code)
		}

		blocked := hitFrom(router, "10.0.0.2")
		assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
		assert.Contains(t, blocked.Body.String(), "too many requests")
		assert.Contains(t, blocked.Body.String(), "retry_in_s")
	})

	t.Run("Limits are per client IP", func(t *testing.T) {
		rdb.FlushDB(context.Background())
		router := limitedRouter(rdb, 1)

		assert.Equal(t, http.StatusOK, hitFrom(router, "10.0.0.3").Code)
		assert.Equal(t, http.StatusTooManyRequests, hitFrom(router, "10.0.0.3").Code)
		assert.Equal(t, http.StatusOK, hitFrom(router, "10.0.0.4").Code, "A different client keeps its own budget")
	})

	t.Run("Fails open when redis is unreachable", func(t *testing.T) {
		deadRdb := redis.NewClient(&redis.Options{Addr: "localhost:1"})
		router := limitedRouter(deadRdb, 1)

		for i := 0; i < 3; i++ {
			w := hitFrom(router, "10.0.0.5")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "pong", w.Body.String())
		}
	})
}
