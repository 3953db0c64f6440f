package apple_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
)

func TestParseBuildConfiguration(t *testing.T) {
	b, err := apple.ParseBuildConfiguration(" release ")
	require.NoError(t, err)
	require.Equal(t, apple.BuildRelease, b)

	for _, raw := range []string{"", "staging", "Debug", "DEBUG"} {
		_, err := apple.ParseBuildConfiguration(raw)
		require.ErrorIs(t, err, apple.ErrUnknownBuildConfiguration, raw)
	}
}

func TestProviderTableRequiresEveryConfiguration(t *testing.T) {
	_, err := apple.NewProviderTable(testProvider(apple.BuildDebug))
	require.ErrorContains(t, err, "release is missing")

	_, err = apple.NewProviderTable(testProvider(apple.BuildDebug), testProvider(apple.BuildDebug))
	require.ErrorContains(t, err, "duplicate")

	incomplete := testProvider(apple.BuildRelease)
	incomplete.KeyID = ""
	_, err = apple.NewProviderTable(testProvider(apple.BuildDebug), incomplete)
	require.ErrorContains(t, err, "key id is required")
}

func TestProviderTableLookup(t *testing.T) {
	table, err := apple.NewProviderTable(testProvider(apple.BuildDebug), testProvider(apple.BuildRelease))
	require.NoError(t, err)

	cfg, err := table.Lookup(apple.BuildRelease)
	require.NoError(t, err)
	require.Equal(t, "com.example.release", cfg.Subject)
	require.Equal(t, "com.example.release", cfg.EffectiveClientID())

	_, err = table.Lookup("staging")
	require.ErrorIs(t, err, apple.ErrUnknownBuildConfiguration)
}

func testProvider(b apple.BuildConfiguration) apple.ProviderConfig {
	return apple.ProviderConfig{
		BuildConfiguration: b,
		Issuer:             "TEAM123456",
		Subject:            "com.example." + string(b),
		KeyID:              "KEY" + string(b),
	}
}
