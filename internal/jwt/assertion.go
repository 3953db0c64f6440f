package jwt

import (
	"context"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	"github.com/smallbiznis/appleid-token/internal/keys"
)

// AssertionTTL bounds how long a client assertion is accepted by Apple.
const AssertionTTL = 120 * time.Second

// ClientAssertion is a signed client_secret for a single Apple request.
type ClientAssertion struct {
	Token     string
	KeyID     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AssertionSigner mints ES256 client assertions. It holds no per-request state; every call
// signs a new token.
type AssertionSigner struct {
	keys      keys.Store
	providers apple.ProviderTable
	now       func() time.Time
}

// NewAssertionSigner constructs a signer. A nil now uses time.Now.
func NewAssertionSigner(store keys.Store, providers apple.ProviderTable, now func() time.Time) *AssertionSigner {
	if now == nil {
		now = time.Now
	}
	return &AssertionSigner{keys: store, providers: providers, now: now}
}

// Mint signs a fresh assertion for the given build configuration.
func (s *AssertionSigner) Mint(ctx context.Context, b apple.BuildConfiguration) (ClientAssertion, error) {
	cfg, err := s.providers.Lookup(b)
	if err != nil {
		return ClientAssertion{}, err
	}

	key, err := s.keys.SigningKey(ctx, b)
	if err != nil {
		return ClientAssertion{}, fmt.Errorf("%w: load key: %w", apple.ErrSigning, err)
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.ES256, Key: key.PrivateKey},
		(&gojose.SignerOptions{}).WithType("JWT").WithHeader("kid", cfg.KeyID),
	)
	if err != nil {
		return ClientAssertion{}, fmt.Errorf("%w: new signer: %w", apple.ErrSigning, err)
	}

	now := s.now().UTC().Truncate(time.Second)
	expiry := now.Add(AssertionTTL)
	claims := gojwt.Claims{
		Issuer:   cfg.Issuer,
		Subject:  cfg.Subject,
		Audience: gojwt.Audience{apple.Audience},
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(expiry),
	}

	token, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return ClientAssertion{}, fmt.Errorf("%w: serialize jwt: %w", apple.ErrSigning, err)
	}

	return ClientAssertion{
		Token:     token,
		KeyID:     cfg.KeyID,
		Subject:   cfg.Subject,
		IssuedAt:  now,
		ExpiresAt: expiry,
	}, nil
}
