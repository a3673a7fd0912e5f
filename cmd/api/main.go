package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/cache"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/genai"
	adapterHTTP "github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/repository"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/workers"
)

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	serverPort := os.Getenv("PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("Critical: JWT_SECRET is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "habit-tracker"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Database connected successfully.")

	var rdb *redis.Client
	var statsCache services.StatsCache

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost != "" {
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		rdb, err = cache.NewRedisClient(redisHost, redisPort, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("Redis unavailable, continuing without cache: %v", err)
			rdb = nil
		} else {
			statsCache = cache.NewStatsCache(rdb)
			defer rdb.Close()
		}
	} else {
		log.Println("REDIS_HOST not set, stats cache disabled")
	}

	userRepo := repository.NewPostgresUserRepository(db)
	habitRepo := repository.NewPostgresHabitRepository(db)
	chainRepo := repository.NewPostgresChainRepository(db)
	rewardRepo := repository.NewPostgresRewardRepository(db)

	rewardService := services.NewRewardService(rewardRepo)
	rewardWorker := workers.NewRewardWorker(rewardService)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	rewardWorker.Start(workerCtx)

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewTokenService(jwtSecret, jwtIssuer, 24*time.Hour, userRepo)
	habitService := services.NewHabitService(habitRepo, rewardWorker)
	chainService := services.NewChainService(chainRepo, habitRepo, habitService, rewardWorker)
	statsService := services.NewStatsService(habitRepo, statsCache)

	var generator services.TextGenerator
	if apiKey := os.Getenv("GENAI_API_KEY"); apiKey != "" {
		generator = genai.NewClient(os.Getenv("GENAI_BASE_URL"), apiKey, os.Getenv("GENAI_MODEL"))
	} else {
		log.Println("GENAI_API_KEY not set, insights fall back to canned messages")
	}
	insightService := services.NewInsightService(statsService, generator)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(authService, tokenService),
		HabitHandler: adapterHTTP.NewHabitHandler(habitService),
		ChainHandler: adapterHTTP.NewChainHandler(chainService),
		StatsHandler: adapterHTTP.NewStatsHandler(statsService, insightService, rewardService),
		TokenService: tokenService,
		DB:           db,
		Redis:        rdb,
		StartTime:    startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Habit tracker API running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	// Stop the background loop, then flush whatever reward posts are still
	// queued so committed completions don't lose their XP.
	stopWorker()
	rewardWorker.Drain(ctx)

	log.Println("Server stopped gracefully.")
}
