package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
)

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	ServiceName          string
	RateLimitRPM         int
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	Apple                AppleConfig
}

// AppleConfig groups the Sign in with Apple settings shared by every build configuration.
type AppleConfig struct {
	TeamID      string
	BaseURL     string
	HTTPTimeout time.Duration
	MaxRetries  int
	Clients     map[apple.BuildConfiguration]AppleClient
}

// AppleClient is the registered client identity and signing key for one build configuration.
type AppleClient struct {
	Subject       string
	ClientID      string
	KeyID         string
	PrivateKeyPEM []byte
}

type appleClientEnv struct {
	Subject        string `env:"SUBJECT"`
	ClientID       string `env:"CLIENT_ID"`
	KeyID          string `env:"KEY_ID"`
	PrivateKey     string `env:"PRIVATE_KEY"`
	PrivateKeyFile string `env:"PRIVATE_KEY_FILE"`
}

type configEnv struct {
	Environment          string         `env:"APP_ENV"                      envDefault:"development"`
	HTTPPort             string         `env:"HTTP_PORT"                    envDefault:"8080"`
	ServiceName          string         `env:"SERVICE_NAME"                 envDefault:"appleid-token"`
	RateLimitRPM         int            `env:"RATE_LIMIT_RPM"               envDefault:"600"`
	TelemetryEndpoint    string         `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TelemetryInsecure    bool           `env:"OTEL_EXPORTER_OTLP_INSECURE"  envDefault:"true"`
	CORSAllowedOrigins   []string       `env:"CORS_ALLOWED_ORIGINS"         envDefault:"*"                envSeparator:","`
	CORSAllowedMethods   []string       `env:"CORS_ALLOWED_METHODS"         envDefault:"GET,POST,OPTIONS" envSeparator:","`
	CORSAllowedHeaders   []string       `env:"CORS_ALLOWED_HEADERS"         envDefault:"Content-Type"     envSeparator:","`
	CORSAllowCredentials bool           `env:"CORS_ALLOW_CREDENTIALS"`
	AppleTeamID          string         `env:"APPLE_TEAM_ID"`
	AppleBaseURL         string         `env:"APPLE_BASE_URL"               envDefault:"https://appleid.apple.com"`
	AppleHTTPTimeout     time.Duration  `env:"APPLE_HTTP_TIMEOUT"           envDefault:"15s"`
	AppleMaxRetries      int            `env:"APPLE_MAX_RETRIES"            envDefault:"0"`
	Debug                appleClientEnv `envPrefix:"APPLE_DEBUG_"`
	Release              appleClientEnv `envPrefix:"APPLE_RELEASE_"`
}

// Load reads configuration from the environment, after applying a local .env file if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var raw configEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	teamID := strings.TrimSpace(raw.AppleTeamID)
	if teamID == "" {
		return Config{}, fmt.Errorf("APPLE_TEAM_ID is required")
	}

	debug, err := raw.Debug.resolve("APPLE_DEBUG_")
	if err != nil {
		return Config{}, err
	}
	release, err := raw.Release.resolve("APPLE_RELEASE_")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:          strings.TrimSpace(raw.Environment),
		HTTPPort:             strings.TrimSpace(raw.HTTPPort),
		ServiceName:          strings.TrimSpace(raw.ServiceName),
		RateLimitRPM:         raw.RateLimitRPM,
		TelemetryEndpoint:    strings.TrimSpace(raw.TelemetryEndpoint),
		TelemetryInsecure:    raw.TelemetryInsecure,
		CORSAllowedOrigins:   cleanList(raw.CORSAllowedOrigins),
		CORSAllowedMethods:   cleanList(raw.CORSAllowedMethods),
		CORSAllowedHeaders:   cleanList(raw.CORSAllowedHeaders),
		CORSAllowCredentials: raw.CORSAllowCredentials,
		Apple: AppleConfig{
			TeamID:      teamID,
			BaseURL:     strings.TrimRight(strings.TrimSpace(raw.AppleBaseURL), "/"),
			HTTPTimeout: raw.AppleHTTPTimeout,
			MaxRetries:  raw.AppleMaxRetries,
			Clients: map[apple.BuildConfiguration]AppleClient{
				apple.BuildDebug:   debug,
				apple.BuildRelease: release,
			},
		},
	}

	if cfg.Apple.BaseURL == "" {
		return Config{}, fmt.Errorf("APPLE_BASE_URL must not be empty")
	}
	if cfg.Apple.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("APPLE_HTTP_TIMEOUT must be positive")
	}
	if cfg.Apple.MaxRetries < 0 {
		cfg.Apple.MaxRetries = 0
	}

	return cfg, nil
}

// ProviderConfigs returns the per-build-configuration Apple client identities.
func (c AppleConfig) ProviderConfigs() []apple.ProviderConfig {
	configs := make([]apple.ProviderConfig, 0, len(c.Clients))
	for _, b := range apple.BuildConfigurations() {
		client, ok := c.Clients[b]
		if !ok {
			continue
		}
		configs = append(configs, apple.ProviderConfig{
			BuildConfiguration: b,
			Issuer:             c.TeamID,
			Subject:            client.Subject,
			ClientID:           client.ClientID,
			KeyID:              client.KeyID,
		})
	}
	return configs
}

// SigningKeys returns the PEM-encoded private key for each build configuration.
func (c AppleConfig) SigningKeys() map[apple.BuildConfiguration][]byte {
	keys := make(map[apple.BuildConfiguration][]byte, len(c.Clients))
	for b, client := range c.Clients {
		keys[b] = client.PrivateKeyPEM
	}
	return keys
}

func (e appleClientEnv) resolve(prefix string) (AppleClient, error) {
	client := AppleClient{
		Subject:  strings.TrimSpace(e.Subject),
		ClientID: strings.TrimSpace(e.ClientID),
		KeyID:    strings.TrimSpace(e.KeyID),
	}
	if client.Subject == "" {
		return AppleClient{}, fmt.Errorf("%sSUBJECT is required", prefix)
	}
	if client.KeyID == "" {
		return AppleClient{}, fmt.Errorf("%sKEY_ID is required", prefix)
	}

	inline := strings.TrimSpace(e.PrivateKey)
	path := strings.TrimSpace(e.PrivateKeyFile)
	switch {
	case inline != "" && path != "":
		return AppleClient{}, fmt.Errorf("set only one of %sPRIVATE_KEY and %sPRIVATE_KEY_FILE", prefix, prefix)
	case inline != "":
		// Single-line env values usually carry escaped newlines.
		client.PrivateKeyPEM = []byte(strings.ReplaceAll(inline, `\n`, "\n"))
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return AppleClient{}, fmt.Errorf("read %sPRIVATE_KEY_FILE: %w", prefix, err)
		}
		client.PrivateKeyPEM = data
	default:
		return AppleClient{}, fmt.Errorf("%sPRIVATE_KEY or %sPRIVATE_KEY_FILE is required", prefix, prefix)
	}

	return client, nil
}

func cleanList(values []string) []string {
	var cleaned []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
