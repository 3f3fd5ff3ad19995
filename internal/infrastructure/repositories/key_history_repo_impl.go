package repositories

import (
	"context"

	"gorm.io/gorm"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/infrastructure/models"
)

type KeyHistoryRepository struct {
	db *gorm.DB
}

func NewKeyHistoryRepository(db *gorm.DB) *KeyHistoryRepository {
	return &KeyHistoryRepository{db: db}
}

func (r *KeyHistoryRepository) Append(ctx context.Context, entry *entities.KeyHistoryEntry) error {
	m := &models.ApiKeyHistory{
		KeyID:       entry.KeyID,
		Action:      entry.Action,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		PerformedBy: entry.PerformedBy,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}

func (r *KeyHistoryRepository) ListByKey(ctx context.Context, keyID int64) ([]*entities.KeyHistoryEntry, error) {
	var ms []models.ApiKeyHistory
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("key_id = ?", keyID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.KeyHistoryEntry, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		items = append(items, &entities.KeyHistoryEntry{
			ID:          m.ID,
			KeyID:       m.KeyID,
			Action:      m.Action,
			OldValue:    m.OldValue,
			NewValue:    m.NewValue,
			PerformedBy: m.PerformedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	return items, nil
}
