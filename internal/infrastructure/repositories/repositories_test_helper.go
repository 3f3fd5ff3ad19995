package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createApiKeyTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_digest TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		owner_email TEXT,
		owner_user_id INTEGER,
		active BOOLEAN NOT NULL DEFAULT true,
		label TEXT,
		rotated_from INTEGER,
		suspended_at DATETIME,
		expires_at DATETIME,
		created_at DATETIME
	);`)
}

func createKeyHistoryTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE api_key_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		performed_by INTEGER,
		created_at DATETIME
	);`)
}

func createRequestLogTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE request_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_id INTEGER,
		endpoint TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		latency_ms REAL NOT NULL DEFAULT 0,
		masked_payload TEXT,
		source_ip TEXT,
		created_at DATETIME
	);`)
}

func createAllKeyTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	createApiKeyTable(t, db)
	createKeyHistoryTable(t, db)
	createRequestLogTable(t, db)
}
