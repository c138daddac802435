package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sqlscribe/sqlscribe/internal/api"
	"github.com/sqlscribe/sqlscribe/internal/api/handler"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/deepseek"
	"github.com/sqlscribe/sqlscribe/internal/llm/gemini"
	"github.com/sqlscribe/sqlscribe/internal/llm/kimi"
	"github.com/sqlscribe/sqlscribe/internal/llm/openai"
	"github.com/sqlscribe/sqlscribe/internal/llm/qianwen"
	"github.com/sqlscribe/sqlscribe/internal/llm/zhipu"
	"github.com/sqlscribe/sqlscribe/internal/repository/postgres"
	"github.com/sqlscribe/sqlscribe/internal/repository/redis"
	"github.com/sqlscribe/sqlscribe/internal/repository/sqlite"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Backend).
		Msg("starting sqlscribe API server")

	// Storage backend
	var (
		sessionRepo domain.SessionRepository
		dictRepo    domain.DictionaryRepository
		historyRepo domain.HistoryRepository
		pinger      handler.Pinger
	)
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		sessionRepo = postgres.NewSessionRepository(db.Pool)
		dictRepo = postgres.NewDictionaryRepository(db.Pool)
		historyRepo = postgres.NewHistoryRepository(db.Pool)
		pinger = db
	default:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite store")
		}
		defer store.Close()
		sessionRepo = sqlite.NewSessionRepository(store)
		dictRepo = sqlite.NewDictionaryRepository(store)
		historyRepo = sqlite.NewHistoryRepository(store)
	}

	// Redis is optional; without it the API runs uncached and unthrottled
	var dictCache *redis.DictionaryCache
	var rateLimiter *redis.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
		dictCache = redis.NewDictionaryCache(redisClient)
		rateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	}

	// LLM providers
	llmService := llm.NewService(cfg.LLM.DefaultProvider)
	llmService.Register(openai.NewProvider(cfg.LLM.OpenAI.Model))
	llmService.Register(gemini.NewProvider(cfg.LLM.Gemini.Model))
	llmService.Register(deepseek.NewProvider(cfg.LLM.DeepSeek.Model))
	llmService.Register(qianwen.NewProvider(cfg.LLM.Qianwen.Model))
	llmService.Register(kimi.NewProvider(cfg.LLM.Kimi.Model))
	llmService.Register(zhipu.NewProvider(cfg.LLM.Zhipu.Model))

	// Services
	sessionService := service.NewSessionService(sessionRepo)
	dictService := service.NewDictionaryService(llmService, dictRepo, dictCache)
	queryService := service.NewQueryService(llmService, dictService, historyRepo, sessionRepo)

	// Retention sweep runs on its own schedule, independent of requests
	cleaner := service.NewCleaner(historyRepo, sessionRepo, cfg.Retention.MaxAge)
	cleanerCtx, stopCleaner := context.WithCancel(context.Background())
	defer stopCleaner()
	go cleaner.Start(cleanerCtx, cfg.Retention.Interval)

	router := api.NewRouter(api.Deps{
		Config:      cfg,
		LLMService:  llmService,
		Sessions:    sessionService,
		Dictionary:  dictService,
		Query:       queryService,
		RateLimiter: rateLimiter,
		DB:          pinger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msgf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
