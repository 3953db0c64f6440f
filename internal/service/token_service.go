package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	appleadapter "github.com/smallbiznis/appleid-token/internal/adapter/apple"
	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	"github.com/smallbiznis/appleid-token/internal/jwt"
)

// TokenService exchanges Sign in with Apple authorization codes and revokes refresh tokens.
// Each call is independent; nothing is retained between requests.
type TokenService struct {
	providers apple.ProviderTable
	signer    *jwt.AssertionSigner
	client    appleadapter.ProviderClient
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewTokenService wires dependencies.
func NewTokenService(providers apple.ProviderTable, signer *jwt.AssertionSigner, client appleadapter.ProviderClient, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		providers: providers,
		signer:    signer,
		client:    client,
		logger:    logger,
		tracer:    otel.Tracer("github.com/smallbiznis/appleid-token/internal/service"),
	}
}

// ExchangeCode trades an authorization code for a refresh token.
func (s *TokenService) ExchangeCode(ctx context.Context, code, buildConfiguration string) (*apple.TokenExchangeResult, error) {
	ctx, span := s.startSpan(ctx, "TokenService.ExchangeCode")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(buildConfiguration) == "" {
		return nil, fmt.Errorf("%w: code and build_configuration are required", apple.ErrInvalidRequest)
	}

	creds, b, err := s.credentials(ctx, buildConfiguration)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("apple.build_configuration", b.String()))

	token, err := s.client.ExchangeCode(ctx, creds, code)
	if err != nil {
		recordError(span, err)
		s.logger.Warn("apple code exchange failed",
			zap.String("build_configuration", b.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if strings.TrimSpace(token.RefreshToken) == "" {
		recordError(span, apple.ErrMissingRefreshToken)
		s.logger.Warn("apple code exchange returned no refresh token",
			zap.String("build_configuration", b.String()),
		)
		return nil, apple.ErrMissingRefreshToken
	}

	s.logger.Info("apple code exchanged", zap.String("build_configuration", b.String()))
	return &apple.TokenExchangeResult{RefreshToken: token.RefreshToken}, nil
}

// Revoke invalidates a refresh token with Apple.
func (s *TokenService) Revoke(ctx context.Context, refreshToken, buildConfiguration string) error {
	ctx, span := s.startSpan(ctx, "TokenService.Revoke")
	defer span.End()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" || strings.TrimSpace(buildConfiguration) == "" {
		return fmt.Errorf("%w: refresh_token and build_configuration are required", apple.ErrInvalidRequest)
	}

	creds, b, err := s.credentials(ctx, buildConfiguration)
	if err != nil {
		recordError(span, err)
		return err
	}
	span.SetAttributes(attribute.String("apple.build_configuration", b.String()))

	if err := s.client.RevokeToken(ctx, creds, refreshToken); err != nil {
		recordError(span, err)
		s.logger.Warn("apple token revocation failed",
			zap.String("build_configuration", b.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("apple token revoked", zap.String("build_configuration", b.String()))
	return nil
}

// BuildConfigurations lists the configurations this service can serve.
func (s *TokenService) BuildConfigurations() []apple.BuildConfiguration {
	return apple.BuildConfigurations()
}

// credentials validates the build configuration before any signing or network work and
// mints a fresh client assertion for it.
func (s *TokenService) credentials(ctx context.Context, raw string) (appleadapter.ClientCredentials, apple.BuildConfiguration, error) {
	b, err := apple.ParseBuildConfiguration(raw)
	if err != nil {
		return appleadapter.ClientCredentials{}, "", err
	}
	cfg, err := s.providers.Lookup(b)
	if err != nil {
		return appleadapter.ClientCredentials{}, "", err
	}
	assertion, err := s.signer.Mint(ctx, b)
	if err != nil {
		return appleadapter.ClientCredentials{}, "", err
	}
	return appleadapter.ClientCredentials{
		ClientID:     cfg.EffectiveClientID(),
		ClientSecret: assertion.Token,
	}, b, nil
}

func (s *TokenService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
