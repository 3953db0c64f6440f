package apple

import (
	"fmt"
	"strings"
)

// Audience is the fixed "aud" claim Apple expects on client assertions.
const Audience = "https://appleid.apple.com"

// BuildConfiguration selects the registered Apple client identity for a deployment variant.
type BuildConfiguration string

const (
	BuildDebug   BuildConfiguration = "debug"
	BuildRelease BuildConfiguration = "release"
)

// BuildConfigurations lists every supported configuration in a stable order.
func BuildConfigurations() []BuildConfiguration {
	return []BuildConfiguration{BuildDebug, BuildRelease}
}

// ParseBuildConfiguration matches raw against the known configurations.
func ParseBuildConfiguration(raw string) (BuildConfiguration, error) {
	candidate := BuildConfiguration(strings.TrimSpace(raw))
	for _, known := range BuildConfigurations() {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBuildConfiguration, raw)
}

func (b BuildConfiguration) String() string {
	return string(b)
}

// ProviderConfig is the Apple client identity bound to one build configuration.
type ProviderConfig struct {
	BuildConfiguration BuildConfiguration
	Issuer             string
	Subject            string
	ClientID           string
	KeyID              string
}

// EffectiveClientID returns the client_id form value, falling back to the subject.
func (p ProviderConfig) EffectiveClientID() string {
	if id := strings.TrimSpace(p.ClientID); id != "" {
		return id
	}
	return p.Subject
}

// TokenResponse models the body of a successful /auth/token call.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int64
	Raw          map[string]any
}

// TokenExchangeResult is the payload returned to callers after a code exchange.
type TokenExchangeResult struct {
	RefreshToken string `json:"refresh_token"`
}
