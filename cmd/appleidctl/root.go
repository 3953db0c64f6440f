package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appleadapter "github.com/smallbiznis/appleid-token/internal/adapter/apple"
	"github.com/smallbiznis/appleid-token/internal/config"
	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	"github.com/smallbiznis/appleid-token/internal/jwt"
	"github.com/smallbiznis/appleid-token/internal/keys"
	"github.com/smallbiznis/appleid-token/internal/service"
)

var (
	buildConfiguration string
	verbose            bool
)

var rootCmd = &cobra.Command{
	Use:   "appleidctl",
	Short: "Operator tooling for the Sign in with Apple token service",
	Long: `appleidctl uses the same environment as the token service (APPLE_TEAM_ID,
APPLE_DEBUG_*, APPLE_RELEASE_*, or a local .env file) to mint client secrets and to
exchange or revoke tokens directly against Apple.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&buildConfiguration, "build-configuration", "b", string(apple.BuildDebug),
		"Build configuration to act as (debug, release)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log Apple responses to stderr")

	rootCmd.AddCommand(configsCmd, mintCmd, exchangeCmd, revokeCmd)
}

// toolchain is everything a subcommand may need, built from the environment.
type toolchain struct {
	cfg       config.Config
	providers apple.ProviderTable
	signer    *jwt.AssertionSigner
	tokens    *service.TokenService
}

func loadToolchain() (*toolchain, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	providers, err := apple.NewProviderTable(cfg.Apple.ProviderConfigs()...)
	if err != nil {
		return nil, fmt.Errorf("provider table: %w", err)
	}
	store, err := keys.NewStaticStore(cfg.Apple.SigningKeys())
	if err != nil {
		return nil, fmt.Errorf("key store: %w", err)
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	signer := jwt.NewAssertionSigner(store, providers, nil)
	client := appleadapter.NewHTTPProviderClient(appleadapter.Options{
		BaseURL:    cfg.Apple.BaseURL,
		Timeout:    cfg.Apple.HTTPTimeout,
		MaxRetries: cfg.Apple.MaxRetries,
		Logger:     logger,
	})

	return &toolchain{
		cfg:       cfg,
		providers: providers,
		signer:    signer,
		tokens:    service.NewTokenService(providers, signer, client, logger),
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
