package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
	"cccd-api.backend/internal/domain/repositories"
	"cccd-api.backend/pkg/logger"
)

const (
	// DefaultGracePeriodDays is how long a rotated-out key row is kept
	// before its recorded expiry. The old key is deactivated immediately;
	// the grace window is record-keeping, not a dual-active overlap.
	DefaultGracePeriodDays = 7

	maxLabelLength = 100

	defaultStoreTimeout = 2 * time.Second
)

// ApiKeyUsecase owns the key lifecycle state machine and the hot-path
// admission decision.
type ApiKeyUsecase struct {
	keyRepo      repositories.ApiKeyRepository
	historyRepo  repositories.KeyHistoryRepository
	uow          repositories.UnitOfWork
	limiter      *RateLimiter
	storeTimeout time.Duration
	now          func() time.Time
}

func NewApiKeyUsecase(
	keyRepo repositories.ApiKeyRepository,
	historyRepo repositories.KeyHistoryRepository,
	uow repositories.UnitOfWork,
	limiter *RateLimiter,
	storeTimeout time.Duration,
) *ApiKeyUsecase {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &ApiKeyUsecase{
		keyRepo:      keyRepo,
		historyRepo:  historyRepo,
		uow:          uow,
		limiter:      limiter,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Create mints a new key. The plaintext appears only in the response; the
// store keeps its digest and display prefix. A nil daysValid means no expiry.
func (u *ApiKeyUsecase) Create(ctx context.Context, input *entities.CreateApiKeyInput, ownerID *int64, ownerEmail string) (*entities.CreateApiKeyResponse, error) {
	if !input.Tier.IsValid() {
		return nil, domainerrors.BadRequest("unknown tier: " + string(input.Tier))
	}
	if len(input.Label) > maxLabelLength {
		return nil, domainerrors.BadRequest("label must be at most 100 characters")
	}

	plaintext, err := GenerateKey(input.Tier)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	var expiresAt *time.Time
	if input.DaysValid != nil && *input.DaysValid > 0 {
		t := u.now().AddDate(0, 0, *input.DaysValid)
		expiresAt = &t
	}

	key := &entities.ApiKey{
		KeyDigest:   DigestKey(plaintext),
		KeyPrefix:   KeyDisplayPrefix(plaintext),
		Tier:        input.Tier,
		OwnerEmail:  ownerEmail,
		OwnerUserID: ownerID,
		Active:      true,
		Label:       input.Label,
		ExpiresAt:   expiresAt,
	}
	if err := u.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	u.appendHistory(ctx, key.ID, "created", "", string(input.Tier), ownerID)

	return &entities.CreateApiKeyResponse{
		ID:        key.ID,
		ApiKey:    plaintext, // shown once
		KeyPrefix: key.KeyPrefix,
		Tier:      key.Tier,
		Label:     key.Label,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	}, nil
}

// Validate resolves a plaintext key to its tier and ceiling. This is the hot
// path: one indexed digest lookup plus in-memory checks. Store timeouts fail
// closed as ServiceUnavailable.
func (u *ApiKeyUsecase) Validate(ctx context.Context, plaintext string) (*entities.KeyInfo, error) {
	if plaintext == "" {
		return nil, domainerrors.InvalidKey("api key is required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, u.storeTimeout)
	defer cancel()

	key, err := u.keyRepo.FindByDigest(lookupCtx, DigestKey(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrNotFound):
			return nil, domainerrors.InvalidKey("invalid api key")
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, domainerrors.ServiceUnavailable("key store timeout")
		default:
			return nil, domainerrors.InternalError(err)
		}
	}

	// Deactivated wins over expired: active=false rejects regardless of
	// expiry state.
	if !key.Active {
		return nil, domainerrors.Deactivated("api key deactivated")
	}
	if key.Expired(u.now()) {
		return nil, domainerrors.Expired("api key expired")
	}

	return &entities.KeyInfo{
		ID:            key.ID,
		KeyPrefix:     key.KeyPrefix,
		Tier:          key.Tier,
		OwnerEmail:    key.OwnerEmail,
		RatePerMinute: LimitFor(key.Tier),
	}, nil
}

// ValidateAndAdmit is the combined decision made before any business logic
// runs. Requests that resolve no key are charged to an IP bucket at the free
// ceiling so unauthenticated probing is still throttled. A denied window is
// reported as RateLimited, distinct from any auth failure; the resolved key
// info is still returned with it so the refusal can be attributed to the key.
func (u *ApiKeyUsecase) ValidateAndAdmit(ctx context.Context, plaintext, sourceIP string) (*entities.KeyInfo, error) {
	info, authErr := u.Validate(ctx, plaintext)
	if authErr != nil && errors.Is(authErr, domainerrors.ErrServiceUnavailable) {
		return nil, authErr
	}

	identity := "ip:" + sourceIP
	tier := entities.TierFree
	if info != nil {
		identity = fmt.Sprintf("key:%d", info.ID)
		tier = info.Tier
	}

	decision, err := u.limiter.Admit(ctx, identity, tier)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return info, domainerrors.RateLimited(decision.Limit, decision.RetryAfterSeconds)
	}
	if authErr != nil {
		return nil, authErr
	}
	return info, nil
}

// Rotate atomically mints a replacement key inheriting tier, owner, label
// and expiry, and hard-cuts the old key over: active=false immediately,
// expiresAt = now + grace period. Expired keys cannot be resumed, so
// rotation is also their recovery path.
func (u *ApiKeyUsecase) Rotate(ctx context.Context, keyID int64, ownerID *int64, gracePeriodDays int) (*entities.RotateApiKeyResponse, error) {
	if gracePeriodDays <= 0 {
		gracePeriodDays = DefaultGracePeriodDays
	}

	plaintext := ""
	var newKey *entities.ApiKey
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		// Lock the old key row so a suspend or delete committing mid-rotate
		// cannot be overwritten by the cutover write below.
		lockCtx := u.uow.WithLock(txCtx)
		old, err := u.keyRepo.FindByID(lockCtx, keyID, ownerID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("key not found")
			}
			return err
		}

		plaintext, err = GenerateKey(old.Tier)
		if err != nil {
			return domainerrors.InternalError(err)
		}

		newKey = &entities.ApiKey{
			KeyDigest:   DigestKey(plaintext),
			KeyPrefix:   KeyDisplayPrefix(plaintext),
			Tier:        old.Tier,
			OwnerEmail:  old.OwnerEmail,
			OwnerUserID: old.OwnerUserID,
			Active:      true,
			Label:       old.Label,
			RotatedFrom: &old.ID,
			ExpiresAt:   old.ExpiresAt, // new key inherits the old expiry
		}
		if err := u.keyRepo.Create(txCtx, newKey); err != nil {
			return err
		}

		graceExpiry := u.now().Add(time.Duration(gracePeriodDays) * 24 * time.Hour)
		old.Active = false
		old.ExpiresAt = &graceExpiry
		return u.keyRepo.Update(txCtx, old)
	})
	if err != nil {
		return nil, err
	}

	u.appendHistory(ctx, keyID, "rotated", fmt.Sprintf("key %d", keyID), fmt.Sprintf("rotated to key %d", newKey.ID), ownerID)
	u.appendHistory(ctx, newKey.ID, "created", "", fmt.Sprintf("rotated from key %d", keyID), ownerID)

	return &entities.RotateApiKeyResponse{
		ID:          newKey.ID,
		ApiKey:      plaintext, // shown once
		KeyPrefix:   newKey.KeyPrefix,
		Tier:        newKey.Tier,
		RotatedFrom: keyID,
		ExpiresAt:   newKey.ExpiresAt,
		CreatedAt:   newKey.CreatedAt,
	}, nil
}

// Suspend pauses a key without deleting it. Double-suspend is a conflict.
func (u *ApiKeyUsecase) Suspend(ctx context.Context, keyID int64, ownerID *int64) error {
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		key, err := u.keyRepo.FindByID(u.uow.WithLock(txCtx), keyID, ownerID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("key not found")
			}
			return err
		}
		if key.Suspended() {
			return domainerrors.Conflict("key is already suspended")
		}

		now := u.now()
		key.Active = false
		key.SuspendedAt = &now
		return u.keyRepo.Update(txCtx, key)
	})
	if err != nil {
		return err
	}

	u.appendHistory(ctx, keyID, "suspended", "active", "suspended", ownerID)
	return nil
}

// Resume reactivates a suspended key. Expired keys cannot be resumed, only
// rotated.
func (u *ApiKeyUsecase) Resume(ctx context.Context, keyID int64, ownerID *int64) error {
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		key, err := u.keyRepo.FindByID(u.uow.WithLock(txCtx), keyID, ownerID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("key not found")
			}
			return err
		}
		if key.Expired(u.now()) {
			return domainerrors.Expired("cannot resume an expired key")
		}

		key.Active = true
		key.SuspendedAt = nil
		return u.keyRepo.Update(txCtx, key)
	})
	if err != nil {
		return err
	}

	u.appendHistory(ctx, keyID, "resumed", "suspended", "active", ownerID)
	return nil
}

// Delete hard-deletes a key; history and usage rows cascade with it, so no
// audit entry is written for deletion. A second delete of the same key
// returns NotFound, not success.
func (u *ApiKeyUsecase) Delete(ctx context.Context, keyID int64, ownerID *int64) error {
	if err := u.keyRepo.Delete(ctx, keyID, ownerID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("key not found")
		}
		return err
	}
	return nil
}

// UpdateLabel replaces the owner annotation on a key.
func (u *ApiKeyUsecase) UpdateLabel(ctx context.Context, keyID int64, ownerID *int64, label string) error {
	if len(label) > maxLabelLength {
		return domainerrors.BadRequest("label must be at most 100 characters")
	}

	var oldLabel string
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		key, err := u.keyRepo.FindByID(u.uow.WithLock(txCtx), keyID, ownerID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("key not found")
			}
			return err
		}
		oldLabel = key.Label
		key.Label = label
		return u.keyRepo.Update(txCtx, key)
	})
	if err != nil {
		return err
	}

	u.appendHistory(ctx, keyID, "label_updated", oldLabel, label, ownerID)
	return nil
}

// List returns all keys owned by a user, newest first.
func (u *ApiKeyUsecase) List(ctx context.Context, ownerID int64) ([]*entities.ApiKey, error) {
	return u.keyRepo.ListByOwner(ctx, ownerID)
}

// Get is the ownership-scoped single-key lookup.
func (u *ApiKeyUsecase) Get(ctx context.Context, keyID int64, ownerID *int64) (*entities.ApiKey, error) {
	key, err := u.keyRepo.FindByID(ctx, keyID, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("key not found")
		}
		return nil, err
	}
	return key, nil
}

// History returns the audit trail for a key the caller owns.
func (u *ApiKeyUsecase) History(ctx context.Context, keyID int64, ownerID *int64) ([]*entities.KeyHistoryEntry, error) {
	if _, err := u.Get(ctx, keyID, ownerID); err != nil {
		return nil, err
	}
	return u.historyRepo.ListByKey(ctx, keyID)
}

// appendHistory writes one audit entry. Audit is best-effort: failures are
// logged and never roll back the primary transition.
func (u *ApiKeyUsecase) appendHistory(ctx context.Context, keyID int64, action, oldValue, newValue string, actor *int64) {
	entry := &entities.KeyHistoryEntry{
		KeyID:       keyID,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		PerformedBy: actor,
	}
	if err := u.historyRepo.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "failed to append key history",
			zap.Int64("key_id", keyID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
