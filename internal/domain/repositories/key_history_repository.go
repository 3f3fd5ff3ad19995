package repositories

import (
	"context"

	"cccd-api.backend/internal/domain/entities"
)

// KeyHistoryRepository stores the audit trail of key lifecycle transitions.
// Writes are best-effort: lifecycle operations log and swallow failures.
type KeyHistoryRepository interface {
	Append(ctx context.Context, entry *entities.KeyHistoryEntry) error
	ListByKey(ctx context.Context, keyID int64) ([]*entities.KeyHistoryEntry, error)
}
