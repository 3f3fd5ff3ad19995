package usecases

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"cccd-api.backend/internal/domain/entities"
)

func TestGenerateKey_TierPrefixes(t *testing.T) {
	cases := []struct {
		tier   entities.Tier
		prefix string
	}{
		{entities.TierFree, "free_"},
		{entities.TierPremium, "prem_"},
		{entities.TierUltra, "ultr_"},
		{entities.Tier("bogus"), "unkn_"},
	}

	for _, tc := range cases {
		key, err := GenerateKey(tc.tier)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(key, tc.prefix), "key %q should start with %q", key, tc.prefix)
		require.Len(t, key, len(tc.prefix)+keyRandomHexLen)
	}
}

func TestGenerateKey_Unique(t *testing.T) {
	a, err := GenerateKey(entities.TierFree)
	require.NoError(t, err)
	b, err := GenerateKey(entities.TierFree)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGenerateKey_RandFailure(t *testing.T) {
	orig := keyRandRead
	keyRandRead = func([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
	defer func() { keyRandRead = orig }()

	_, err := GenerateKey(entities.TierFree)
	require.Error(t, err)
}

func TestDigestKey(t *testing.T) {
	digest := DigestKey("free_00000000000000000000000000000000")
	require.Len(t, digest, 64)
	require.Equal(t, digest, DigestKey("free_00000000000000000000000000000000"))
	require.NotEqual(t, digest, DigestKey("free_00000000000000000000000000000001"))
}

func TestKeyDisplayPrefix(t *testing.T) {
	key, err := GenerateKey(entities.TierPremium)
	require.NoError(t, err)
	prefix := KeyDisplayPrefix(key)
	require.Len(t, prefix, keyDisplayPrefixLen)
	require.Equal(t, key[:12], prefix)

	require.Equal(t, "short", KeyDisplayPrefix("short"))
}
