package jwt_test

import (
	"context"
	"testing"
	"time"

	golangjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	customjwt "github.com/smallbiznis/appleid-token/internal/jwt"
	"github.com/smallbiznis/appleid-token/internal/keys/keystest"
)

func TestMintClaims(t *testing.T) {
	store, private := keystest.Store(t)
	providers := keystest.ProviderTable(t)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	signer := customjwt.NewAssertionSigner(store, providers, func() time.Time { return fixed })

	for _, b := range apple.BuildConfigurations() {
		assertion, err := signer.Mint(context.Background(), b)
		require.NoError(t, err)
		require.Equal(t, customjwt.AssertionTTL, assertion.ExpiresAt.Sub(assertion.IssuedAt))

		cfg, err := providers.Lookup(b)
		require.NoError(t, err)

		parsed, err := golangjwt.Parse(assertion.Token,
			func(*golangjwt.Token) (any, error) { return &private[b].PublicKey, nil },
			golangjwt.WithValidMethods([]string{"ES256"}),
			golangjwt.WithTimeFunc(func() time.Time { return fixed }),
			golangjwt.WithAudience(apple.Audience),
			golangjwt.WithIssuer(cfg.Issuer),
			golangjwt.WithSubject(cfg.Subject),
		)
		require.NoError(t, err)
		require.Equal(t, cfg.KeyID, parsed.Header["kid"])
		require.Equal(t, "ES256", parsed.Header["alg"])

		claims, ok := parsed.Claims.(golangjwt.MapClaims)
		require.True(t, ok)
		iat, err := claims.GetIssuedAt()
		require.NoError(t, err)
		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		require.Equal(t, fixed.Unix(), iat.Unix())
		require.Equal(t, int64(120), exp.Unix()-iat.Unix())
		require.Equal(t, apple.Audience, claims["aud"])
	}
}

func TestMintProducesFreshTokens(t *testing.T) {
	store, _ := keystest.Store(t)
	signer := customjwt.NewAssertionSigner(store, keystest.ProviderTable(t), nil)

	first, err := signer.Mint(context.Background(), apple.BuildDebug)
	require.NoError(t, err)
	second, err := signer.Mint(context.Background(), apple.BuildDebug)
	require.NoError(t, err)
	// ECDSA signatures are randomized, so identical claims still yield distinct tokens.
	require.NotEqual(t, first.Token, second.Token)
}

func TestMintRejectsUnknownConfiguration(t *testing.T) {
	store, _ := keystest.Store(t)
	signer := customjwt.NewAssertionSigner(store, keystest.ProviderTable(t), nil)

	_, err := signer.Mint(context.Background(), "staging")
	require.ErrorIs(t, err, apple.ErrUnknownBuildConfiguration)
}
