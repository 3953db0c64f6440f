package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	"github.com/smallbiznis/appleid-token/internal/http/presenter"
)

const (
	msgSuccess          = "Success"
	msgRevoked          = "Token revoked successfully"
	msgExchangeRequired = "Authorization code and build configuration are required"
	msgRevokeRequired   = "Refresh token and build configuration are required"
	msgNoRefreshToken   = "No refresh token in response"
	msgRevokeFailed     = "Error revoking token: "
	msgUnknownBuild     = "Unknown build configuration: "
)

// TokenService is the behaviour the handlers need from the service layer.
type TokenService interface {
	ExchangeCode(ctx context.Context, code, buildConfiguration string) (*apple.TokenExchangeResult, error)
	Revoke(ctx context.Context, refreshToken, buildConfiguration string) error
	BuildConfigurations() []apple.BuildConfiguration
}

// TokenHandler serves the Apple token endpoints.
type TokenHandler struct {
	Tokens TokenService
	logger *zap.Logger
}

// NewTokenHandler creates the handler set.
func NewTokenHandler(tokens TokenService, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{Tokens: tokens, logger: logger}
}

type getRefreshTokenRequest struct {
	Code               string `form:"code" json:"code"`
	BuildConfiguration string `form:"build_configuration" json:"build_configuration"`
}

type revokeTokenRequest struct {
	RefreshToken       string `form:"refresh_token" json:"refresh_token"`
	BuildConfiguration string `form:"build_configuration" json:"build_configuration"`
}

// GetRefreshToken exchanges an authorization code for a refresh token.
func (h *TokenHandler) GetRefreshToken(c *gin.Context) {
	var req getRefreshTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, "getRefreshToken", http.StatusBadRequest, msgExchangeRequired, err)
		return
	}

	result, err := h.Tokens.ExchangeCode(c.Request.Context(), req.Code, req.BuildConfiguration)
	if err != nil {
		switch {
		case errors.Is(err, apple.ErrInvalidRequest):
			h.fail(c, "getRefreshToken", http.StatusBadRequest, msgExchangeRequired, err)
		case errors.Is(err, apple.ErrUnknownBuildConfiguration):
			h.fail(c, "getRefreshToken", http.StatusBadRequest, msgUnknownBuild+req.BuildConfiguration, err)
		case errors.Is(err, apple.ErrMissingRefreshToken):
			h.fail(c, "getRefreshToken", http.StatusBadRequest, msgNoRefreshToken, err)
		default:
			h.fail(c, "getRefreshToken", http.StatusInternalServerError, err.Error(), err)
		}
		return
	}

	h.logger.Info("getRefreshToken response", zap.Int("status", http.StatusOK))
	presenter.OK(c, http.StatusOK, msgSuccess, result)
}

// RevokeToken revokes a refresh token with Apple.
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	var req revokeTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, "revokeToken", http.StatusBadRequest, msgRevokeRequired, err)
		return
	}

	if err := h.Tokens.Revoke(c.Request.Context(), req.RefreshToken, req.BuildConfiguration); err != nil {
		switch {
		case errors.Is(err, apple.ErrInvalidRequest):
			h.fail(c, "revokeToken", http.StatusBadRequest, msgRevokeRequired, err)
		case errors.Is(err, apple.ErrUnknownBuildConfiguration):
			h.fail(c, "revokeToken", http.StatusBadRequest, msgUnknownBuild+req.BuildConfiguration, err)
		default:
			h.fail(c, "revokeToken", http.StatusInternalServerError, msgRevokeFailed+err.Error(), err)
		}
		return
	}

	h.logger.Info("revokeToken response", zap.Int("status", http.StatusOK))
	presenter.OK(c, http.StatusOK, msgRevoked, nil)
}

// Health reports liveness and the build configurations being served.
func (h *TokenHandler) Health(c *gin.Context) {
	presenter.OK(c, http.StatusOK, "ok", gin.H{"build_configurations": h.Tokens.BuildConfigurations()})
}

func (h *TokenHandler) fail(c *gin.Context, endpoint string, status int, message string, err error) {
	fields := []zap.Field{
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.String("message", message),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("token request failed", fields...)
	} else {
		h.logger.Warn("token request rejected", fields...)
	}
	presenter.Fail(c, status, message)
}
