package repositories

import (
	"context"

	"cccd-api.backend/internal/domain/entities"
)

// ApiKeyRepository is the durable record of keys.
//
// Ownership-scoped lookups take an optional ownerID: nil means admin scope,
// a non-nil ownerID that does not match the row yields ErrNotFound rather
// than a forbidden error, so key existence cannot be probed.
type ApiKeyRepository interface {
	Create(ctx context.Context, key *entities.ApiKey) error
	FindByDigest(ctx context.Context, digest string) (*entities.ApiKey, error)
	FindByID(ctx context.Context, id int64, ownerID *int64) (*entities.ApiKey, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*entities.ApiKey, error)
	Update(ctx context.Context, key *entities.ApiKey) error
	// Delete is a hard delete; associated history and usage rows cascade.
	Delete(ctx context.Context, id int64, ownerID *int64) error
}
