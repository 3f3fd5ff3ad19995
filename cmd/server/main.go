package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cccd-api.backend/internal/config"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/infrastructure/repositories"
	"cccd-api.backend/internal/interfaces/http/handlers"
	"cccd-api.backend/internal/interfaces/http/middleware"
	"cccd-api.backend/internal/usecases"
	"cccd-api.backend/pkg/jwt"
	"cccd-api.backend/pkg/logger"
	"cccd-api.backend/pkg/metrics"
	"cccd-api.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis backs idempotency replay, and the shared rate-limit counters
	// when RATE_LIMIT_STORE=redis.
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	apiKeyRepo := repositories.NewApiKeyRepository(db)
	historyRepo := repositories.NewKeyHistoryRepository(db)
	requestLogRepo := repositories.NewRequestLogRepository(db)
	uow := repositories.NewUnitOfWork(db)

	var counterStore usecases.CounterStore
	if strings.EqualFold(cfg.RateLimit.Store, "redis") {
		counterStore = usecases.NewRedisCounterStore(redis.GetClient())
		log.Println("Rate limit counters: redis")
	} else {
		counterStore = usecases.NewMemoryCounterStore()
		log.Println("Rate limit counters: in-process memory")
	}
	limiter := usecases.NewRateLimiter(counterStore)

	apiKeyUsecase := usecases.NewApiKeyUsecase(apiKeyRepo, historyRepo, uow, limiter, cfg.RateLimit.StoreTimeout)
	usageUsecase := usecases.NewUsageUsecase(requestLogRepo, apiKeyRepo)
	parser := usecases.NewCCCDParser()

	defaultVersion, _, ok := usecases.ResolveProvinceVersion(cfg.Parse.ProvinceVersion, entities.ProvinceCurrent34)
	if !ok {
		return fmt.Errorf("invalid PROVINCE_VERSION: %q", cfg.Parse.ProvinceVersion)
	}

	m := metrics.New()

	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyUsecase, m)
	usageHandler := handlers.NewUsageHandler(usageUsecase)
	cccdHandler := handlers.NewCCCDHandler(parser, defaultVersion, m)

	authMiddleware := middleware.AuthMiddleware(jwtService)
	admissionMiddleware := middleware.Admission(apiKeyUsecase, usageUsecase, m)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(m.Middleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	registerAPIV1Routes(r, routeDeps{
		apiKeyHandler:       apiKeyHandler,
		usageHandler:        usageHandler,
		cccdHandler:         cccdHandler,
		authMiddleware:      authMiddleware,
		admissionMiddleware: admissionMiddleware,
	})

	log.Printf("🚀 CCCD API starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
