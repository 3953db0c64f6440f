package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	appleadapter "github.com/smallbiznis/appleid-token/internal/adapter/apple"
	"github.com/smallbiznis/appleid-token/internal/config"
	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	httptransport "github.com/smallbiznis/appleid-token/internal/http"
	"github.com/smallbiznis/appleid-token/internal/http/handler"
	"github.com/smallbiznis/appleid-token/internal/jwt"
	"github.com/smallbiznis/appleid-token/internal/keys"
	"github.com/smallbiznis/appleid-token/internal/middleware"
	"github.com/smallbiznis/appleid-token/internal/server"
	"github.com/smallbiznis/appleid-token/internal/service"
	"github.com/smallbiznis/appleid-token/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newProviderTable,
			newKeyStore,
			newAssertionSigner,
			newAppleClient,
			service.NewTokenService,
			newTokenHandler,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newProviderTable(cfg config.Config) (apple.ProviderTable, error) {
	table, err := apple.NewProviderTable(cfg.Apple.ProviderConfigs()...)
	if err != nil {
		return apple.ProviderTable{}, fmt.Errorf("provider table: %w", err)
	}
	return table, nil
}

func newKeyStore(cfg config.Config) (keys.Store, error) {
	store, err := keys.NewStaticStore(cfg.Apple.SigningKeys())
	if err != nil {
		return nil, fmt.Errorf("key store: %w", err)
	}
	return store, nil
}

func newAssertionSigner(store keys.Store, providers apple.ProviderTable) *jwt.AssertionSigner {
	return jwt.NewAssertionSigner(store, providers, nil)
}

func newAppleClient(cfg config.Config, logger *zap.Logger) appleadapter.ProviderClient {
	return appleadapter.NewHTTPProviderClient(appleadapter.Options{
		BaseURL:    cfg.Apple.BaseURL,
		Timeout:    cfg.Apple.HTTPTimeout,
		MaxRetries: cfg.Apple.MaxRetries,
		Logger:     logger.Named("apple"),
	})
}

func newTokenHandler(svc *service.TokenService, logger *zap.Logger) *handler.TokenHandler {
	return handler.NewTokenHandler(svc, logger.Named("handler"))
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
