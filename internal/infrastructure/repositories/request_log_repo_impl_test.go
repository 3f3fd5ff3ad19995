package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"cccd-api.backend/internal/domain/entities"
)

func seedRequestLog(t *testing.T, db *gorm.DB, keyID int64, status int, latency float64, at time.Time) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO request_logs (key_id, endpoint, status_code, latency_ms, created_at) VALUES (?, '/api/v1/cccd/parse', ?, ?, ?)`,
		keyID, status, latency, at)
}

func TestRequestLogRepository_Create(t *testing.T) {
	db := newTestDB(t)
	createRequestLogTable(t, db)
	repo := NewRequestLogRepository(db)
	ctx := context.Background()

	log := &entities.RequestLog{
		KeyID:         null.Int64From(4),
		Endpoint:      "/api/v1/cccd/parse",
		StatusCode:    200,
		LatencyMs:     1.25,
		MaskedPayload: "001******345",
		SourceIP:      "10.0.0.9",
	}
	require.NoError(t, repo.Create(ctx, log))
	require.NotZero(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())

	// Rows without an admitted key keep a NULL key_id.
	anon := &entities.RequestLog{Endpoint: "/api/v1/cccd/parse", StatusCode: 401}
	require.NoError(t, repo.Create(ctx, anon))

	var nullKeyCount int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM request_logs WHERE key_id IS NULL`).Scan(&nullKeyCount).Error)
	require.Equal(t, int64(1), nullKeyCount)
}

func TestRequestLogRepository_AggregateDailyByKey(t *testing.T) {
	db := newTestDB(t)
	createRequestLogTable(t, db)
	repo := NewRequestLogRepository(db)
	ctx := context.Background()

	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)
	seedRequestLog(t, db, 1, 200, 2.0, today)
	seedRequestLog(t, db, 1, 200, 4.0, today)
	seedRequestLog(t, db, 1, 429, 1.0, today)
	seedRequestLog(t, db, 1, 200, 3.0, yesterday)
	// Another key and a row outside the window stay invisible.
	seedRequestLog(t, db, 2, 200, 9.0, today)
	seedRequestLog(t, db, 1, 200, 9.0, today.AddDate(0, 0, -45))

	daily, err := repo.AggregateDailyByKey(ctx, 1, 30)
	require.NoError(t, err)
	require.Len(t, daily, 2)

	// Newest day first.
	require.Equal(t, int64(3), daily[0].Count)
	require.Equal(t, int64(2), daily[0].SuccessCount)
	require.Equal(t, int64(1), daily[0].ErrorCount)
	require.InDelta(t, 7.0/3.0, daily[0].AvgLatencyMs, 0.001)

	require.Equal(t, int64(1), daily[1].Count)
	require.Equal(t, int64(1), daily[1].SuccessCount)
	require.Equal(t, int64(0), daily[1].ErrorCount)
}

func TestRequestLogRepository_AggregateDailyByKeys(t *testing.T) {
	db := newTestDB(t)
	createRequestLogTable(t, db)
	repo := NewRequestLogRepository(db)
	ctx := context.Background()

	now := time.Now()
	seedRequestLog(t, db, 1, 200, 2.0, now)
	seedRequestLog(t, db, 2, 500, 2.0, now)
	seedRequestLog(t, db, 3, 200, 2.0, now)

	daily, err := repo.AggregateDailyByKeys(ctx, []int64{1, 2}, 30)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	require.Equal(t, int64(2), daily[0].Count)
	require.Equal(t, int64(1), daily[0].SuccessCount)
	require.Equal(t, int64(1), daily[0].ErrorCount)

	// No keys means no query and no rows.
	daily, err = repo.AggregateDailyByKeys(ctx, nil, 30)
	require.NoError(t, err)
	require.Empty(t, daily)
}

func TestRequestLogRepository_TotalsByKey(t *testing.T) {
	db := newTestDB(t)
	createRequestLogTable(t, db)
	repo := NewRequestLogRepository(db)
	ctx := context.Background()

	now := time.Now()
	seedRequestLog(t, db, 1, 200, 2.0, now)
	seedRequestLog(t, db, 1, 200, 6.0, now.AddDate(0, 0, -2))
	seedRequestLog(t, db, 1, 503, 1.0, now)
	seedRequestLog(t, db, 1, 200, 9.0, now.AddDate(0, 0, -45))

	stats, err := repo.TotalsByKey(ctx, 1, 30)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalRequests)
	require.Equal(t, int64(2), stats.SuccessRequests)
	require.Equal(t, int64(1), stats.ErrorRequests)
	require.InDelta(t, 3.0, stats.AvgLatencyMs, 0.001)
}

func TestRequestLogRepository_TotalsWithNoRows(t *testing.T) {
	db := newTestDB(t)
	createRequestLogTable(t, db)
	repo := NewRequestLogRepository(db)
	ctx := context.Background()

	stats, err := repo.TotalsByKey(ctx, 42, 30)
	require.NoError(t, err)
	require.Zero(t, stats.TotalRequests)
	require.Zero(t, stats.SuccessRequests)
	require.Zero(t, stats.ErrorRequests)
	require.Zero(t, stats.AvgLatencyMs)

	stats, err = repo.TotalsByKeys(ctx, nil, 30)
	require.NoError(t, err)
	require.Zero(t, stats.TotalRequests)
}
