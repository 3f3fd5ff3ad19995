package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/infrastructure/models"
)

type RequestLogRepository struct {
	db *gorm.DB
}

func NewRequestLogRepository(db *gorm.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

func (r *RequestLogRepository) Create(ctx context.Context, log *entities.RequestLog) error {
	m := &models.RequestLog{
		KeyID:         log.KeyID,
		Endpoint:      log.Endpoint,
		StatusCode:    log.StatusCode,
		LatencyMs:     log.LatencyMs,
		MaskedPayload: log.MaskedPayload,
		SourceIP:      log.SourceIP,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	log.ID = m.ID
	log.CreatedAt = m.CreatedAt
	return nil
}

// DATE() and the aggregate shapes below work on both postgres and the
// sqlite databases used in tests.
const dailySelect = `DATE(created_at) AS date,
COUNT(*) AS count,
SUM(CASE WHEN status_code = 200 THEN 1 ELSE 0 END) AS success_count,
SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END) AS error_count,
COALESCE(AVG(latency_ms), 0) AS avg_latency_ms`

const totalsSelect = `COUNT(*) AS total_requests,
COALESCE(SUM(CASE WHEN status_code = 200 THEN 1 ELSE 0 END), 0) AS success_requests,
COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0) AS error_requests,
COALESCE(AVG(latency_ms), 0) AS avg_latency_ms`

type dailyRow struct {
	Date         string
	Count        int64
	SuccessCount int64
	ErrorCount   int64
	AvgLatencyMs float64
}

type totalsRow struct {
	TotalRequests   int64
	SuccessRequests int64
	ErrorRequests   int64
	AvgLatencyMs    float64
}

func (r *RequestLogRepository) AggregateDailyByKey(ctx context.Context, keyID int64, rangeDays int) ([]entities.DailyUsage, error) {
	return r.aggregateDaily(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("key_id = ?", keyID)
	}, rangeDays)
}

func (r *RequestLogRepository) AggregateDailyByKeys(ctx context.Context, keyIDs []int64, rangeDays int) ([]entities.DailyUsage, error) {
	if len(keyIDs) == 0 {
		return []entities.DailyUsage{}, nil
	}
	return r.aggregateDaily(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("key_id IN ?", keyIDs)
	}, rangeDays)
}

func (r *RequestLogRepository) TotalsByKey(ctx context.Context, keyID int64, rangeDays int) (*entities.UsageStats, error) {
	return r.totals(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("key_id = ?", keyID)
	}, rangeDays)
}

func (r *RequestLogRepository) TotalsByKeys(ctx context.Context, keyIDs []int64, rangeDays int) (*entities.UsageStats, error) {
	if len(keyIDs) == 0 {
		return &entities.UsageStats{Daily: []entities.DailyUsage{}}, nil
	}
	return r.totals(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("key_id IN ?", keyIDs)
	}, rangeDays)
}

func (r *RequestLogRepository) aggregateDaily(ctx context.Context, scope func(*gorm.DB) *gorm.DB, rangeDays int) ([]entities.DailyUsage, error) {
	var rows []dailyRow
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.RequestLog{}).
		Select(dailySelect).
		Where("created_at >= ?", cutoff(rangeDays)).
		Group("DATE(created_at)").
		Order("date DESC")
	if err := scope(query).Scan(&rows).Error; err != nil {
		return nil, err
	}

	daily := make([]entities.DailyUsage, 0, len(rows))
	for _, row := range rows {
		daily = append(daily, entities.DailyUsage{
			Date:         row.Date,
			Count:        row.Count,
			SuccessCount: row.SuccessCount,
			ErrorCount:   row.ErrorCount,
			AvgLatencyMs: row.AvgLatencyMs,
		})
	}
	return daily, nil
}

func (r *RequestLogRepository) totals(ctx context.Context, scope func(*gorm.DB) *gorm.DB, rangeDays int) (*entities.UsageStats, error) {
	var row totalsRow
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.RequestLog{}).
		Select(totalsSelect).
		Where("created_at >= ?", cutoff(rangeDays))
	if err := scope(query).Scan(&row).Error; err != nil {
		return nil, err
	}

	return &entities.UsageStats{
		TotalRequests:   row.TotalRequests,
		SuccessRequests: row.SuccessRequests,
		ErrorRequests:   row.ErrorRequests,
		AvgLatencyMs:    row.AvgLatencyMs,
	}, nil
}

func cutoff(rangeDays int) time.Time {
	if rangeDays <= 0 {
		rangeDays = 30
	}
	return time.Now().AddDate(0, 0, -rangeDays)
}
