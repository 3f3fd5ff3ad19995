package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
	"cccd-api.backend/internal/domain/repositories"
	"cccd-api.backend/pkg/logger"
)

const defaultRecordTimeout = 5 * time.Second

// UsageUsecase records call outcomes and serves on-demand rollups for
// dashboards and billing.
type UsageUsecase struct {
	logRepo       repositories.RequestLogRepository
	keyRepo       repositories.ApiKeyRepository
	recordTimeout time.Duration
}

func NewUsageUsecase(logRepo repositories.RequestLogRepository, keyRepo repositories.ApiKeyRepository) *UsageUsecase {
	return &UsageUsecase{
		logRepo:       logRepo,
		keyRepo:       keyRepo,
		recordTimeout: defaultRecordTimeout,
	}
}

// Record appends one usage row, fire-and-forget. It runs on its own
// goroutine with a detached bounded context so a slow write never delays
// the response already decided; failures are logged and swallowed.
func (u *UsageUsecase) Record(log *entities.RequestLog) {
	go u.record(log)
}

func (u *UsageUsecase) record(log *entities.RequestLog) {
	ctx, cancel := context.WithTimeout(context.Background(), u.recordTimeout)
	defer cancel()

	if err := u.logRepo.Create(ctx, log); err != nil {
		logger.Warn(ctx, "failed to record api usage",
			zap.String("endpoint", log.Endpoint),
			zap.Int("status", log.StatusCode),
			zap.Error(err),
		)
	}
}

// AggregateDaily returns the per-day rollup for one key over the range.
// Ownership-scoped: a key owned by someone else is NotFound. Zero usage
// yields an empty series, not an error.
func (u *UsageUsecase) AggregateDaily(ctx context.Context, keyID int64, ownerID *int64, rangeDays int) (*entities.UsageStats, error) {
	key, err := u.keyRepo.FindByID(ctx, keyID, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("key not found")
		}
		return nil, err
	}

	stats, err := u.logRepo.TotalsByKey(ctx, keyID, rangeDays)
	if err != nil {
		return nil, err
	}
	daily, err := u.logRepo.AggregateDailyByKey(ctx, keyID, rangeDays)
	if err != nil {
		return nil, err
	}

	stats.KeyID = &key.ID
	stats.KeyPrefix = key.KeyPrefix
	stats.Tier = key.Tier
	stats.Daily = daily
	return stats, nil
}

// AggregateForOwner rolls up usage across every key the owner holds. An
// owner with no keys gets empty aggregates, not NotFound.
func (u *UsageUsecase) AggregateForOwner(ctx context.Context, ownerID int64, rangeDays int) (*entities.UsageStats, error) {
	keys, err := u.keyRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	keyIDs := make([]int64, 0, len(keys))
	for _, key := range keys {
		keyIDs = append(keyIDs, key.ID)
	}

	stats, err := u.logRepo.TotalsByKeys(ctx, keyIDs, rangeDays)
	if err != nil {
		return nil, err
	}
	daily, err := u.logRepo.AggregateDailyByKeys(ctx, keyIDs, rangeDays)
	if err != nil {
		return nil, err
	}

	stats.Daily = daily
	return stats, nil
}
