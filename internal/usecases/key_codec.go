package usecases

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"cccd-api.backend/internal/domain/entities"
)

// Key format: {tierPrefix}_{32 hex chars}, 128 bits of entropy. Only the
// SHA-256 digest and the first 12 characters are ever stored.
const (
	keyRandomHexLen     = 32
	keyDisplayPrefixLen = 12

	// unknownTierPrefix keeps generation total: tier validity is checked
	// upstream, so an unknown tier yields a sentinel prefix, not an error.
	unknownTierPrefix = "unkn"
)

var tierKeyPrefixes = map[entities.Tier]string{
	entities.TierFree:    "free",
	entities.TierPremium: "prem",
	entities.TierUltra:   "ultr",
}

var keyRandRead = rand.Read

// GenerateKey produces a new plaintext API key for the given tier.
func GenerateKey(tier entities.Tier) (string, error) {
	prefix, ok := tierKeyPrefixes[tier]
	if !ok {
		prefix = unknownTierPrefix
	}
	random, err := generateRandomHex(keyRandomHexLen)
	if err != nil {
		return "", err
	}
	return prefix + "_" + random, nil
}

// DigestKey computes the one-way SHA-256 hex digest stored in place of the
// plaintext. Deterministic; used only for equality lookup.
func DigestKey(plaintext string) string {
	hash := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(hash[:])
}

// KeyDisplayPrefix returns the non-secret leading characters of a plaintext
// key, kept for display and audit.
func KeyDisplayPrefix(plaintext string) string {
	if len(plaintext) <= keyDisplayPrefixLen {
		return plaintext
	}
	return plaintext[:keyDisplayPrefixLen]
}

func generateRandomHex(n int) (string, error) {
	bytes := make([]byte, n/2) // n is hex chars, so bytes is n/2
	if _, err := keyRandRead(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
