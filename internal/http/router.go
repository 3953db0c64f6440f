package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/smallbiznis/appleid-token/internal/config"
	"github.com/smallbiznis/appleid-token/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/appleid-token/internal/http/middleware"
	"github.com/smallbiznis/appleid-token/internal/http/presenter"
	"github.com/smallbiznis/appleid-token/internal/middleware"
)

const (
	GetRefreshTokenRoute = "/getRefreshToken"
	RevokeTokenRoute     = "/revokeToken"
	HealthCheckRoute     = "/healthz"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, tokenHandler *handler.TokenHandler, rateLimiter *middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.L()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered))
		presenter.Fail(c, http.StatusInternalServerError, "Internal server error")
	}))
	r.Use(httpmiddleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET(HealthCheckRoute, tokenHandler.Health)

	r.GET(GetRefreshTokenRoute, tokenHandler.GetRefreshToken)
	r.POST(GetRefreshTokenRoute, tokenHandler.GetRefreshToken)
	r.GET(RevokeTokenRoute, tokenHandler.RevokeToken)
	r.POST(RevokeTokenRoute, tokenHandler.RevokeToken)

	r.NoRoute(func(c *gin.Context) {
		presenter.Fail(c, http.StatusNotFound, "Not found")
	})
	r.NoMethod(func(c *gin.Context) {
		presenter.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
