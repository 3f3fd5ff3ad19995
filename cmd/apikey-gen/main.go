package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cccd-api.backend/internal/config"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/infrastructure/repositories"
	"cccd-api.backend/internal/usecases"
)

var openKeyGenDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{PrepareStmt: false})
}

var openKeyGenSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type keyGenRuntime interface {
	CreateApiKey(ctx context.Context, input *entities.CreateApiKeyInput, ownerEmail string) (*entities.CreateApiKeyResponse, error)
}

type keyGenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (keyGenRuntime, io.Closer, error)
	out     io.Writer
}

type keyGenRuntimeImpl struct {
	apiKeyCase *usecases.ApiKeyUsecase
}

func (r keyGenRuntimeImpl) CreateApiKey(ctx context.Context, input *entities.CreateApiKeyInput, ownerEmail string) (*entities.CreateApiKeyResponse, error) {
	// Keys minted here carry no owner user id: they are operator keys
	// visible to admins only.
	return r.apiKeyCase.Create(ctx, input, nil, ownerEmail)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultKeyGenDeps() keyGenDeps {
	return keyGenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (keyGenRuntime, io.Closer, error) {
			dsn := cfg.Database.URL()
			db, err := openKeyGenDB(dsn)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}

			sqlDB, err := openKeyGenSQLDB(db)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}

			apiKeyRepo := repositories.NewApiKeyRepository(db)
			historyRepo := repositories.NewKeyHistoryRepository(db)
			uow := repositories.NewUnitOfWork(db)
			limiter := usecases.NewRateLimiter(usecases.NewMemoryCounterStore())
			apiKeyUsecase := usecases.NewApiKeyUsecase(apiKeyRepo, historyRepo, uow, limiter, cfg.RateLimit.StoreTimeout)
			return keyGenRuntimeImpl{apiKeyCase: apiKeyUsecase}, sqlDB, nil
		},
		out: os.Stdout,
	}
}

func runKeyGen(args []string, deps keyGenDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.prepare == nil {
		def := defaultKeyGenDeps()
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("apikey-gen", flag.ContinueOnError)
	emailFlag := fs.String("email", "", "owner email recorded on the key (required)")
	tierFlag := fs.String("tier", "free", "key tier: free, premium or ultra")
	labelFlag := fs.String("label", "", "key label (optional)")
	daysFlag := fs.Int("days", 0, "days until expiry; 0 means no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *emailFlag == "" {
		return fmt.Errorf("--email is required")
	}
	tier := entities.Tier(*tierFlag)
	if !tier.IsValid() {
		return fmt.Errorf("invalid tier: %s (allowed: free, premium, ultra)", *tierFlag)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	runtime, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	input := &entities.CreateApiKeyInput{
		Tier:  tier,
		Label: *labelFlag,
	}
	if *daysFlag > 0 {
		input.DaysValid = daysFlag
	}

	resp, err := runtime.CreateApiKey(context.Background(), input, *emailFlag)
	if err != nil {
		return fmt.Errorf("failed creating api key: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Created API key and stored its digest in DB")
	_, _ = fmt.Fprintf(deps.out, "key_id=%d\n", resp.ID)
	_, _ = fmt.Fprintf(deps.out, "tier=%s\n", resp.Tier)
	_, _ = fmt.Fprintf(deps.out, "prefix=%s\n", resp.KeyPrefix)
	_, _ = fmt.Fprintf(deps.out, "API_KEY=%s\n", resp.ApiKey)
	return nil
}

func main() {
	if err := runKeyGen(os.Args[1:], defaultKeyGenDeps()); err != nil {
		log.Fatal(err)
	}
}
