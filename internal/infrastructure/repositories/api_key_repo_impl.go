package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
	"cccd-api.backend/internal/infrastructure/models"
)

type ApiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

func (r *ApiKeyRepository) Create(ctx context.Context, key *entities.ApiKey) error {
	m := r.toModel(key)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("duplicate key digest")
		}
		return err
	}
	key.ID = m.ID
	key.CreatedAt = m.CreatedAt
	return nil
}

func (r *ApiKeyRepository) FindByDigest(ctx context.Context, digest string) (*entities.ApiKey, error) {
	var m models.ApiKey
	err := GetDB(ctx, r.db).WithContext(ctx).Where("key_digest = ?", digest).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// FindByID returns ErrNotFound for both missing keys and keys owned by
// someone else; callers cannot tell the two apart. Under a WithLock context
// the row stays locked until the transaction commits.
func (r *ApiKeyRepository) FindByID(ctx context.Context, id int64, ownerID *int64) (*entities.ApiKey, error) {
	var m models.ApiKey
	query := applyLock(ctx, GetDB(ctx, r.db).WithContext(ctx)).Where("id = ?", id)
	if ownerID != nil {
		query = query.Where("owner_user_id = ?", *ownerID)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *ApiKeyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*entities.ApiKey, error) {
	var ms []models.ApiKey
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.ApiKey, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, nil
}

func (r *ApiKeyRepository) Update(ctx context.Context, key *entities.ApiKey) error {
	updates := map[string]interface{}{
		"active":       key.Active,
		"label":        key.Label,
		"suspended_at": key.SuspendedAt,
		"expires_at":   key.ExpiresAt,
	}

	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.ApiKey{}).
		Where("id = ?", key.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Delete hard-deletes the key row and its history and usage rows in one
// transaction. The cascade is explicit so it holds even where foreign key
// enforcement is off (sqlite test databases).
func (r *ApiKeyRepository) Delete(ctx context.Context, id int64, ownerID *int64) error {
	return GetDB(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.ApiKey
		query := tx.Where("id = ?", id)
		if ownerID != nil {
			query = query.Where("owner_user_id = ?", *ownerID)
		}
		if err := query.First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}

		if err := tx.Where("key_id = ?", id).Delete(&models.RequestLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("key_id = ?", id).Delete(&models.ApiKeyHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ApiKey{}, "id = ?", id).Error
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func (r *ApiKeyRepository) toEntity(m *models.ApiKey) *entities.ApiKey {
	return &entities.ApiKey{
		ID:          m.ID,
		KeyDigest:   m.KeyDigest,
		KeyPrefix:   m.KeyPrefix,
		Tier:        entities.Tier(m.Tier),
		OwnerEmail:  m.OwnerEmail,
		OwnerUserID: m.OwnerUserID,
		Active:      m.Active,
		Label:       m.Label,
		RotatedFrom: m.RotatedFrom,
		SuspendedAt: m.SuspendedAt,
		ExpiresAt:   m.ExpiresAt,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *ApiKeyRepository) toModel(e *entities.ApiKey) *models.ApiKey {
	return &models.ApiKey{
		ID:          e.ID,
		KeyDigest:   e.KeyDigest,
		KeyPrefix:   e.KeyPrefix,
		Tier:        string(e.Tier),
		OwnerEmail:  e.OwnerEmail,
		OwnerUserID: e.OwnerUserID,
		Active:      e.Active,
		Label:       e.Label,
		RotatedFrom: e.RotatedFrom,
		SuspendedAt: e.SuspendedAt,
		ExpiresAt:   e.ExpiresAt,
		CreatedAt:   e.CreatedAt,
	}
}
