package entities

import (
	"time"
)

// Tier is a named service level determining the throughput ceiling.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierUltra   Tier = "ultra"
)

// IsValid reports whether the tier is one of the known service levels.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPremium, TierUltra:
		return true
	}
	return false
}

// ApiKey represents a stored API key. The plaintext is never stored; only
// its SHA-256 digest and a short display prefix survive creation.
type ApiKey struct {
	ID          int64      `json:"id"`
	KeyDigest   string     `json:"-"`
	KeyPrefix   string     `json:"keyPrefix"`
	Tier        Tier       `json:"tier"`
	OwnerEmail  string     `json:"ownerEmail,omitempty"`
	OwnerUserID *int64     `json:"ownerUserId,omitempty"`
	Active      bool       `json:"active"`
	Label       string     `json:"label,omitempty"`
	RotatedFrom *int64     `json:"rotatedFrom,omitempty"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Expired reports whether the key's expiry has passed at the given instant.
// Keys without an expiry never expire.
func (k *ApiKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Suspended reports whether the owner has voluntarily paused the key.
func (k *ApiKey) Suspended() bool {
	return k.SuspendedAt != nil
}

// KeyInfo is the validation result handed to the admission path.
type KeyInfo struct {
	ID            int64  `json:"id"`
	KeyPrefix     string `json:"keyPrefix"`
	Tier          Tier   `json:"tier"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
	RatePerMinute int    `json:"ratePerMinute"`
}

// CreateApiKeyInput is the owner-portal payload for minting a key.
type CreateApiKeyInput struct {
	Tier      Tier   `json:"tier" binding:"required"`
	Label     string `json:"label"`
	DaysValid *int   `json:"daysValid"`
}

// CreateApiKeyResponse carries the plaintext key, shown exactly once.
type CreateApiKeyResponse struct {
	ID        int64      `json:"id"`
	ApiKey    string     `json:"apiKey"`
	KeyPrefix string     `json:"keyPrefix"`
	Tier      Tier       `json:"tier"`
	Label     string     `json:"label,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// RotateApiKeyResponse carries the replacement key, shown exactly once.
type RotateApiKeyResponse struct {
	ID          int64      `json:"id"`
	ApiKey      string     `json:"apiKey"`
	KeyPrefix   string     `json:"keyPrefix"`
	Tier        Tier       `json:"tier"`
	RotatedFrom int64      `json:"rotatedFrom"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// UpdateLabelInput updates the free-text owner annotation on a key.
type UpdateLabelInput struct {
	Label string `json:"label"`
}

// KeyHistoryEntry is one audit record of a lifecycle transition.
type KeyHistoryEntry struct {
	ID          int64     `json:"id"`
	KeyID       int64     `json:"keyId"`
	Action      string    `json:"action"`
	OldValue    string    `json:"oldValue,omitempty"`
	NewValue    string    `json:"newValue,omitempty"`
	PerformedBy *int64    `json:"performedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
