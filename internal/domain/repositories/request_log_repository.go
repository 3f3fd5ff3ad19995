package repositories

import (
	"context"

	"cccd-api.backend/internal/domain/entities"
)

// RequestLogRepository is the append-only usage store plus its read-side
// rollups. Aggregates over zero rows return empty series, never errors.
type RequestLogRepository interface {
	Create(ctx context.Context, log *entities.RequestLog) error
	AggregateDailyByKey(ctx context.Context, keyID int64, rangeDays int) ([]entities.DailyUsage, error)
	AggregateDailyByKeys(ctx context.Context, keyIDs []int64, rangeDays int) ([]entities.DailyUsage, error)
	TotalsByKey(ctx context.Context, keyID int64, rangeDays int) (*entities.UsageStats, error)
	TotalsByKeys(ctx context.Context, keyIDs []int64, rangeDays int) (*entities.UsageStats, error)
}
